package proctex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/proctex/internal/parallel"
)

// Generator owns a storage texture and advances it one frame at a time
// through the compute node, on the accelerator when one is available and on
// the CPU otherwise.
//
// Generator is safe for concurrent use; calls are serialized.
type Generator struct {
	mu sync.Mutex

	tex      *StorageTexture
	material *Material
	node     *ComputeNode
	pool     *parallel.WorkgroupPool

	// accel is nil when dispatching on the CPU only.
	accel ComputeAccelerator
	// ownsAccel is set for accelerators injected with WithAccelerator.
	ownsAccel bool

	frames uint64
	closed bool
}

// NewGenerator creates a generator for a width×height texture filled with
// opaque black. The texture must hold at least one 8×8 workgroup.
func NewGenerator(width, height int, opts ...Option) (*Generator, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width < WorkgroupSizeX || height < WorkgroupSizeY {
		return nil, fmt.Errorf("%w: %dx%d", ErrTextureTooSmall, width, height)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tex, err := NewStorageTexture(width, height)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		tex: tex,
		material: &Material{
			Color:   o.materialColor,
			Texture: tex,
			Sampler: o.sampler,
		},
		node: NewComputeNode(width, height, o.initPass),
	}

	switch {
	case o.cpuOnly:
	case o.accelerator != nil:
		if err := o.accelerator.Init(); err != nil {
			return nil, fmt.Errorf("proctex: init accelerator %s: %w", o.accelerator.Name(), err)
		}
		propagateLogger(o.accelerator, Logger())
		g.accel = o.accelerator
		g.ownsAccel = true
	default:
		g.accel = Accelerator()
	}

	g.pool = parallel.NewWorkgroupPool(o.workers)

	Logger().Debug("generator created",
		"width", width, "height", height,
		"workers", g.pool.Workers(), "accelerator", g.acceleratorName())
	return g, nil
}

func (g *Generator) acceleratorName() string {
	if g.accel == nil {
		return "cpu"
	}
	return g.accel.Name()
}

// pipelines returns the cache the node polls.
func (g *Generator) pipelines() PipelineCache {
	if g.accel == nil {
		return cpuPipelines{}
	}
	return g.accel
}

// Frame advances the node and runs the pass for its current stage.
//
// If the accelerator fails the pass, the pass is rerun on the CPU and the
// failure is logged. A pipeline failure on the accelerator drops it for the
// rest of the generator's life and the frame continues on the CPU.
func (g *Generator) Frame(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := g.node.Update(g.pipelines()); err != nil {
		if g.accel == nil {
			return err
		}
		Logger().Warn("accelerator pipeline failed, using CPU",
			"accelerator", g.accel.Name(), "err", err)
		g.dropAccelerator()
		if err := g.node.Update(g.pipelines()); err != nil {
			return err
		}
	}

	pass, ok := g.node.Run()
	if ok {
		if err := g.dispatch(ctx, pass); err != nil {
			return err
		}
	}

	g.frames++
	Logger().Debug("frame",
		"n", g.frames, "state", g.node.State().String(),
		"pass", pass.Label, "workgroups", pass.Workgroups.String())
	return nil
}

func (g *Generator) dispatch(ctx context.Context, pass ComputePass) error {
	if g.accel != nil {
		err := g.accel.Dispatch(g.tex, pass)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			Logger().Warn("accelerator dispatch failed, using CPU",
				"accelerator", g.accel.Name(), "pass", pass.Label, "err", err)
		}
	}
	return Dispatch(ctx, g.pool, g.tex, pass.Workgroups, pass.Kernel())
}

// dropAccelerator switches to CPU dispatch.
func (g *Generator) dropAccelerator() {
	if g.ownsAccel {
		g.accel.Close()
	}
	g.accel = nil
	g.ownsAccel = false
}

// RenderViewport shades dst with the material, sampling the generated
// texture through viewport.
func (g *Generator) RenderViewport(ctx context.Context, viewport Viewport, dst *StorageTexture) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if dst == nil {
		return ErrNilTexture
	}
	if !viewport.Valid() {
		return ErrInvalidViewport
	}
	if dst == g.tex {
		return ErrSameTexture
	}
	if g.accel != nil {
		err := g.accel.RenderViewport(g.material, viewport, dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			Logger().Warn("accelerator viewport pass failed, using CPU",
				"accelerator", g.accel.Name(), "err", err)
		}
	}
	return RenderViewport(ctx, g.pool, g.material, viewport, dst)
}

// Texture returns the generated texture. It is updated in place by Frame.
func (g *Generator) Texture() *StorageTexture {
	return g.tex
}

// Material returns the viewport material bound to the texture.
func (g *Generator) Material() *Material {
	return g.material
}

// State returns the compute node stage.
func (g *Generator) State() NodeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.node.State()
}

// FrameCount returns the number of completed frames.
func (g *Generator) FrameCount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

// AcceleratorName returns the name of the accelerator in use, or "cpu".
func (g *Generator) AcceleratorName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acceleratorName()
}

// Close stops the worker pool and closes an injected accelerator.
// A registered accelerator is left open. Close is safe to call multiple times.
func (g *Generator) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	g.pool.Close()
	if g.ownsAccel {
		g.accel.Close()
	}
	g.accel = nil
}

// ErrClosed is returned by Generator methods after Close.
var ErrClosed = errors.New("proctex: generator closed")
