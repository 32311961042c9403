package proctex

import _ "embed"

// Entry points of the embedded shaders.
const (
	EntryPointInit     = "init"
	EntryPointUpdate   = "update"
	EntryPointVertex   = "vertex"
	EntryPointFragment = "fragment"
)

// ComputeShaderWGSL holds the init and update compute entry points. The
// storage texture is bound at group 0, binding 0.
//
//go:embed shaders/compute.wgsl
var ComputeShaderWGSL string

// MaterialShaderWGSL holds the viewport material: a full-screen vertex stage
// and the fragment stage. The view uniform is group 0, binding 0; the
// material colour, texture and sampler are group 1, bindings 0 to 2.
//
//go:embed shaders/material.wgsl
var MaterialShaderWGSL string
