//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/proctex"
)

// materialPipeline renders the viewport material into an rgba8unorm target.
type materialPipeline struct {
	shader         hal.ShaderModule
	viewLayout     hal.BindGroupLayout
	materialLayout hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout
	pipeline       hal.RenderPipeline
}

func newMaterialPipeline(device hal.Device) (*materialPipeline, error) {
	p := &materialPipeline{}
	if err := p.create(device); err != nil {
		p.destroy(device)
		return nil, err
	}
	return p, nil
}

func (p *materialPipeline) create(device hal.Device) error {
	shader, err := createShaderModule(device, "proctex_material", proctex.MaterialShaderWGSL)
	if err != nil {
		return err
	}
	p.shader = shader

	viewLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "proctex_view_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, MinBindingSize: viewUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create view bind group layout: %w", err)
	}
	p.viewLayout = viewLayout

	materialLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "proctex_material_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageFragment, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, MinBindingSize: materialUniformSize,
			}},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}},
			{Binding: 2, Visibility: gputypes.ShaderStageFragment, Sampler: &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create material bind group layout: %w", err)
	}
	p.materialLayout = materialLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "proctex_material_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.viewLayout, p.materialLayout},
	})
	if err != nil {
		return fmt.Errorf("create material pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "proctex_material_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: proctex.EntryPointVertex,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: proctex.EntryPointFragment,
			Targets: []gputypes.ColorTargetState{
				{Format: gputypes.TextureFormatRGBA8Unorm, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create material render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

func (p *materialPipeline) destroy(device hal.Device) {
	if p == nil || device == nil {
		return
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.materialLayout != nil {
		device.DestroyBindGroupLayout(p.materialLayout)
	}
	if p.viewLayout != nil {
		device.DestroyBindGroupLayout(p.viewLayout)
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
	}
	*p = materialPipeline{}
}

// samplerDescriptor converts a proctex sampler to a HAL sampler descriptor.
func samplerDescriptor(s proctex.Sampler) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        "proctex_material_sampler",
		AddressModeU: addressMode(s.AddressModeU),
		AddressModeV: addressMode(s.AddressModeV),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(s.MagFilter),
		MinFilter:    filterMode(s.MinFilter),
		MipmapFilter: gputypes.FilterModeNearest,
	}
}

func addressMode(m proctex.AddressMode) gputypes.AddressMode {
	switch m {
	case proctex.AddressRepeat:
		return gputypes.AddressModeRepeat
	case proctex.AddressMirrorRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func filterMode(m proctex.FilterMode) gputypes.FilterMode {
	if m == proctex.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// viewportFrame holds the per-call resources of a viewport pass.
type viewportFrame struct {
	source     hal.Texture
	sourceView hal.TextureView
	target     hal.Texture
	targetView hal.TextureView
	sampler    hal.Sampler
	viewBuf    hal.Buffer
	matBuf     hal.Buffer
	viewBind   hal.BindGroup
	matBind    hal.BindGroup
	staging    hal.Buffer
	pitch      uint32
}

func (f *viewportFrame) destroy(device hal.Device) {
	if f.matBind != nil {
		device.DestroyBindGroup(f.matBind)
	}
	if f.viewBind != nil {
		device.DestroyBindGroup(f.viewBind)
	}
	for _, b := range []hal.Buffer{f.staging, f.matBuf, f.viewBuf} {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
	if f.sampler != nil {
		device.DestroySampler(f.sampler)
	}
	for _, v := range []hal.TextureView{f.targetView, f.sourceView} {
		if v != nil {
			device.DestroyTextureView(v)
		}
	}
	for _, t := range []hal.Texture{f.target, f.source} {
		if t != nil {
			device.DestroyTexture(t)
		}
	}
}

// createTexture2D creates an rgba8unorm texture and its default view.
func createTexture2D(device hal.Device, label string, w, h uint32, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s texture view: %w", label, err)
	}
	return tex, view, nil
}

// newViewportFrame uploads the material texture and the current contents of
// dst, and builds the bind groups for one viewport pass.
func (p *materialPipeline) newViewportFrame(device hal.Device, queue hal.Queue, m *proctex.Material, vp proctex.Viewport, dst *proctex.StorageTexture) (*viewportFrame, error) {
	f := &viewportFrame{}
	if err := p.buildFrame(f, device, queue, m, vp, dst); err != nil {
		f.destroy(device)
		return nil, err
	}
	return f, nil
}

func (p *materialPipeline) buildFrame(f *viewportFrame, device hal.Device, queue hal.Queue, m *proctex.Material, vp proctex.Viewport, dst *proctex.StorageTexture) error {
	sw, sh := texSize(m.Texture)
	dw, dh := texSize(dst)

	var err error
	f.source, f.sourceView, err = createTexture2D(device, "proctex_material_source", sw, sh,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	f.target, f.targetView, err = createTexture2D(device, "proctex_viewport_target", dw, dh,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	writeTexture(queue, f.source, m.Texture)
	writeTexture(queue, f.target, dst)

	f.sampler, err = device.CreateSampler(samplerDescriptor(m.Sampler))
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	f.viewBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "proctex_view_uniform", Size: viewUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create view uniform buffer: %w", err)
	}
	queue.WriteBuffer(f.viewBuf, 0, packView(vp))

	f.matBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "proctex_material_uniform", Size: materialUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create material uniform buffer: %w", err)
	}
	queue.WriteBuffer(f.matBuf, 0, packMaterial(m.Color))

	f.viewBind, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "proctex_view_bind", Layout: p.viewLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: f.viewBuf.NativeHandle(), Offset: 0, Size: viewUniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create view bind group: %w", err)
	}

	f.matBind, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "proctex_material_bind", Layout: p.materialLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: f.matBuf.NativeHandle(), Offset: 0, Size: materialUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: f.sourceView.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: f.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create material bind group: %w", err)
	}

	f.pitch = alignedRowPitch(dw)
	f.staging, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "proctex_viewport_staging", Size: uint64(f.pitch) * uint64(dh),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create viewport staging buffer: %w", err)
	}
	return nil
}

// encode records the viewport pass and the copy into the staging buffer.
// Only pixels inside the viewport rectangle are shaded.
func (p *materialPipeline) encode(encoder hal.CommandEncoder, f *viewportFrame, vp proctex.Viewport, dst *proctex.StorageTexture) {
	dw, dh := texSize(dst)
	r := vp.PixelBounds(dst.Bounds())

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "proctex_viewport_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    f.targetView,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, f.viewBind, nil)
	rp.SetBindGroup(1, f.matBind, nil)
	//nolint:gosec // bounds are inside the target
	rp.SetScissorRect(uint32(r.Min.X), uint32(r.Min.Y), uint32(r.Dx()), uint32(r.Dy()))
	rp.Draw(3, 1, 0, 0)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: f.target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(f.target, f.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: f.pitch, RowsPerImage: dh},
		TextureBase:  hal.ImageCopyTexture{Texture: f.target, MipLevel: 0},
		Size:         hal.Extent3D{Width: dw, Height: dh, DepthOrArrayLayers: 1},
	}})
}

// texSize returns the texture extent as uint32.
func texSize(t *proctex.StorageTexture) (w, h uint32) {
	return uint32(t.Width()), uint32(t.Height()) //nolint:gosec // dimensions always fit uint32
}

// writeTexture uploads the host texels of src into tex.
func writeTexture(queue hal.Queue, tex hal.Texture, src *proctex.StorageTexture) {
	w, h := texSize(src)
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		src.Pix(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}
