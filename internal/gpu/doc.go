//go:build !nogpu

// Package gpu runs the proctex compute and viewport passes on a GPU through
// the gogpu/wgpu HAL.
//
// This is an internal package; it is registered with proctex by importing
// github.com/gogpu/proctex/gpu.
//
// # Resources
//
// The accelerator keeps one rgba8unorm storage texture per texture size,
// bound at group 0 / binding 0 of both compute pipelines (init and update).
// Every Dispatch uploads the host texture, runs one compute pass, copies the
// result into a staging buffer with 256-byte aligned rows and reads it back.
//
// The viewport pass uses a render pipeline whose fragment stage samples a
// copy of the material texture. The view uniform is group 0; the material
// uniform, texture and sampler are group 1.
//
// # Device
//
// The Vulkan device is created on first use. A host application that already
// owns a device passes it in with SetDeviceProvider; a shared device is
// never destroyed by the accelerator.
package gpu
