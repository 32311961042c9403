//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/proctex"
)

// submitTimeout bounds the wait for a submitted command buffer.
const submitTimeout = 5 * time.Second

// Accelerator runs the init and update passes as compute shaders and the
// viewport pass as a render pipeline on a Vulkan device.
//
// The device is opened lazily on the first pipeline query, so registering
// the accelerator never blocks on driver initialization. A device shared via
// SetDeviceProvider is used as is and never destroyed.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	compute  *computePipelines
	material *materialPipeline
	storage  *storageTarget

	initTried      bool
	initErr        error
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var (
	_ proctex.ComputeAccelerator  = (*Accelerator)(nil)
	_ proctex.DeviceProviderAware = (*Accelerator)(nil)
)

// Name returns the accelerator name.
func (a *Accelerator) Name() string { return "wgpu-vulkan" }

// Init is a no-op; the device is opened on first use.
func (a *Accelerator) Init() error { return nil }

// SetLogger receives the logger propagated by proctex.SetLogger.
func (a *Accelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// ComputePipelineState opens the device on first call and reports whether
// the pipeline for id is ready.
func (a *Accelerator) ComputePipelineState(id proctex.PipelineID) (proctex.PipelineState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureReadyLocked(); err != nil {
		return proctex.PipelineErr, err
	}
	if a.compute.pipeline(id) == nil {
		return proctex.PipelineErr, fmt.Errorf("unknown pipeline %v", id)
	}
	return proctex.PipelineOk, nil
}

// Dispatch uploads target, runs pass on the GPU and reads the result back.
func (a *Accelerator) Dispatch(target *proctex.StorageTexture, pass proctex.ComputePass) error {
	if target == nil {
		return proctex.ErrNilTexture
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureReadyLocked(); err != nil {
		return fmt.Errorf("%w: %w", proctex.ErrFallbackToCPU, err)
	}
	pipeline := a.compute.pipeline(pass.Pipeline)
	if pipeline == nil {
		return fmt.Errorf("%w: unknown pipeline %v", proctex.ErrFallbackToCPU, pass.Pipeline)
	}

	w, h := texSize(target)
	if !a.storage.matches(w, h) {
		a.storage.destroy(a.device)
		st, err := newStorageTarget(a.device, a.compute.bindLayout, w, h)
		if err != nil {
			a.storage = nil
			return err
		}
		a.storage = st
	}
	st := a.storage
	writeTexture(a.queue, st.texture, target)

	err := a.submitLocked(pass.Label, func(encoder hal.CommandEncoder) {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: pass.Label})
		cp.SetPipeline(pipeline)
		cp.SetBindGroup(0, st.bindGroup, nil)
		cp.Dispatch(pass.Workgroups.X, pass.Workgroups.Y, pass.Workgroups.Z)
		cp.End()

		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: st.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageStorageBinding,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(st.texture, st.staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: st.pitch, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: st.texture, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: st.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageStorageBinding,
			},
		}})
	})
	if err != nil {
		return err
	}
	return a.readbackLocked(st.staging, st.pitch, target)
}

// RenderViewport shades the viewport rectangle of dst with the material.
func (a *Accelerator) RenderViewport(m *proctex.Material, viewport proctex.Viewport, dst *proctex.StorageTexture) error {
	if m == nil || m.Texture == nil || dst == nil {
		return proctex.ErrNilTexture
	}
	if !viewport.Valid() {
		return proctex.ErrInvalidViewport
	}
	if viewport.PixelBounds(dst.Bounds()).Empty() {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureReadyLocked(); err != nil {
		return fmt.Errorf("%w: %w", proctex.ErrFallbackToCPU, err)
	}

	frame, err := a.material.newViewportFrame(a.device, a.queue, m, viewport, dst)
	if err != nil {
		return err
	}
	defer frame.destroy(a.device)

	err = a.submitLocked("proctex_viewport", func(encoder hal.CommandEncoder) {
		a.material.encode(encoder, frame, viewport, dst)
	})
	if err != nil {
		return err
	}
	return a.readbackLocked(frame.staging, frame.pitch, dst)
}

// submitLocked records commands with record, submits them and waits for
// completion.
func (a *Accelerator) submitLocked(label string, record func(hal.CommandEncoder)) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// readbackLocked copies a pitch-aligned staging buffer into dst.
func (a *Accelerator) readbackLocked(staging hal.Buffer, pitch uint32, dst *proctex.StorageTexture) error {
	w, h := texSize(dst)
	readback := make([]byte, uint64(pitch)*uint64(h))
	if err := a.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	pix := make([]byte, int(w)*int(h)*4)
	unpadRows(pix, readback, w, h, pitch)
	return dst.ReplacePixels(pix)
}

// ensureReadyLocked opens the device and builds the pipelines once. A failure
// is remembered until Close.
func (a *Accelerator) ensureReadyLocked() error {
	if a.compute != nil && a.material != nil {
		return nil
	}
	if a.initTried {
		return a.initErr
	}
	a.initTried = true
	if a.device == nil {
		if err := a.initGPU(); err != nil {
			a.initErr = err
			slogger().Warn("GPU init failed, using CPU fallback", "err", err)
			return err
		}
	}
	if err := a.createPipelines(); err != nil {
		a.initErr = err
		slogger().Warn("pipeline creation failed", "err", err)
		return err
	}
	return nil
}

func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	slogger().Info("GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *Accelerator) createPipelines() error {
	compute, err := newComputePipelines(a.device)
	if err != nil {
		return fmt.Errorf("compute pipelines: %w", err)
	}
	material, err := newMaterialPipeline(a.device)
	if err != nil {
		compute.destroy(a.device)
		return fmt.Errorf("material pipeline: %w", err)
	}
	a.compute = compute
	a.material = material
	return nil
}

func (a *Accelerator) destroyPipelines() {
	a.storage.destroy(a.device)
	a.material.destroy(a.device)
	a.compute.destroy(a.device)
	a.storage = nil
	a.material = nil
	a.compute = nil
}

// SetDeviceProvider switches the accelerator to a device owned by the host
// application. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	a.releaseDeviceLocked()

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.initTried = true
	a.initErr = nil
	if err := a.createPipelines(); err != nil {
		a.initErr = err
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	slogger().Info("switched to shared GPU device", "format", provider.SurfaceFormat())
	return nil
}

// releaseDeviceLocked drops the device, destroying it only when owned.
func (a *Accelerator) releaseDeviceLocked() {
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.queue = nil
	a.instance = nil
	a.externalDevice = false
}

// Close releases GPU resources. A later pipeline query reopens the device.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	a.releaseDeviceLocked()
	a.initTried = false
	a.initErr = nil
}
