//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/proctex"
)

// computePipelines holds the init and update pipelines, which share one
// shader module and one bind group layout.
type computePipelines struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	init       hal.ComputePipeline
	update     hal.ComputePipeline
}

func newComputePipelines(device hal.Device) (*computePipelines, error) {
	p := &computePipelines{}
	if err := p.create(device); err != nil {
		p.destroy(device)
		return nil, err
	}
	return p, nil
}

func (p *computePipelines) create(device hal.Device) error {
	shader, err := createShaderModule(device, "proctex_compute", proctex.ComputeShaderWGSL)
	if err != nil {
		return err
	}
	p.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "proctex_compute_bind_layout",
		Entries: computeLayoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create compute bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "proctex_compute_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	p.init, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "proctex_init_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: proctex.EntryPointInit},
	})
	if err != nil {
		return fmt.Errorf("create init pipeline: %w", err)
	}

	p.update, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "proctex_update_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: proctex.EntryPointUpdate},
	})
	if err != nil {
		return fmt.Errorf("create update pipeline: %w", err)
	}
	return nil
}

// computeLayoutEntries describes group 0: the read-write rgba8unorm storage
// texture shared by init and update.
func computeLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute, StorageTexture: &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessReadWrite,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			ViewDimension: gputypes.TextureViewDimension2D,
		}},
	}
}

// pipeline returns the pipeline for id, or nil.
func (p *computePipelines) pipeline(id proctex.PipelineID) hal.ComputePipeline {
	switch id {
	case proctex.PipelineInit:
		return p.init
	case proctex.PipelineUpdate:
		return p.update
	default:
		return nil
	}
}

func (p *computePipelines) destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	if p.update != nil {
		device.DestroyComputePipeline(p.update)
	}
	if p.init != nil {
		device.DestroyComputePipeline(p.init)
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
	}
	*p = computePipelines{}
}

// storageTarget is the GPU copy of a host storage texture with its bind
// group and readback buffer.
type storageTarget struct {
	width, height uint32
	pitch         uint32

	texture   hal.Texture
	view      hal.TextureView
	bindGroup hal.BindGroup
	staging   hal.Buffer
}

func newStorageTarget(device hal.Device, layout hal.BindGroupLayout, width, height uint32) (*storageTarget, error) {
	t := &storageTarget{width: width, height: height, pitch: alignedRowPitch(width)}
	if err := t.create(device, layout); err != nil {
		t.destroy(device)
		return nil, err
	}
	return t, nil
}

func (t *storageTarget) create(device hal.Device, layout hal.BindGroupLayout) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "proctex_storage",
		Size:          hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create storage texture: %w", err)
	}
	t.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "proctex_storage_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create storage texture view: %w", err)
	}
	t.view = view

	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "proctex_compute_bind", Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create compute bind group: %w", err)
	}
	t.bindGroup = bg

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "proctex_storage_staging", Size: uint64(t.pitch) * uint64(t.height),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	t.staging = staging
	return nil
}

func (t *storageTarget) matches(width, height uint32) bool {
	return t != nil && t.width == width && t.height == height
}

func (t *storageTarget) destroy(device hal.Device) {
	if t == nil || device == nil {
		return
	}
	if t.staging != nil {
		device.DestroyBuffer(t.staging)
	}
	if t.bindGroup != nil {
		device.DestroyBindGroup(t.bindGroup)
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
	}
	if t.texture != nil {
		device.DestroyTexture(t.texture)
	}
	*t = storageTarget{}
}
