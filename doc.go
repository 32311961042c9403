// Package proctex generates a procedural storage texture with compute
// kernels and renders it through a viewport material.
//
// # Overview
//
// Two compute entry points write an rgba8unorm storage texture in 8×8×1
// workgroups: init stores a fixed gradient in the first 8×8 texels, and
// update regenerates the whole texture every frame as a grayscale radial
// distance field around its centre. A fragment stage then samples the
// texture at each pixel's position relative to a viewport rectangle.
//
// The kernels ship as WGSL (ComputeShaderWGSL, MaterialShaderWGSL) and as Go
// functions that take the shader built-ins as explicit parameters
// (InitKernel, UpdateKernel, Material.Fragment). The Go forms run on a
// work-stealing CPU dispatcher and are the fallback for the GPU path.
//
// # Quick Start
//
//	import "github.com/gogpu/proctex"
//
//	g, err := proctex.NewGenerator(640, 480)
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	// Loading -> Init -> Update; the third frame draws the distance field.
//	for range 3 {
//		if err := g.Frame(ctx); err != nil {
//			return err
//		}
//	}
//	img := g.Texture().ToImage()
//
// # GPU Dispatch
//
// GPU dispatch is opt-in:
//
//	import _ "github.com/gogpu/proctex/gpu" // enables GPU dispatch
//
// Without it, or if the GPU cannot be initialized, every pass runs on the CPU.
//
// # Coordinate System
//
// Texel (0,0) is the top-left corner; x increases right, y increases down.
// Viewport positions are physical pixels, pixel centres at +0.5.
package proctex

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
