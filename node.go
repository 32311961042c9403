package proctex

import (
	"errors"
	"fmt"
)

// ErrPipelineFailed is returned when a compute pipeline could not be created.
var ErrPipelineFailed = errors.New("proctex: pipeline creation failed")

// PipelineID identifies one of the two compute pipelines.
type PipelineID uint8

const (
	// PipelineInit runs the init entry point.
	PipelineInit PipelineID = iota

	// PipelineUpdate runs the update entry point.
	PipelineUpdate
)

// String returns the entry point name of the pipeline.
func (id PipelineID) String() string {
	switch id {
	case PipelineInit:
		return EntryPointInit
	case PipelineUpdate:
		return EntryPointUpdate
	default:
		return unknownMode
	}
}

// PipelineState is the readiness of a compute pipeline.
type PipelineState uint8

const (
	// PipelineQueued means creation has not started.
	PipelineQueued PipelineState = iota

	// PipelineCreating means creation is in progress.
	PipelineCreating

	// PipelineOk means the pipeline can be dispatched.
	PipelineOk

	// PipelineErr means creation failed.
	PipelineErr
)

// String returns a string representation of the pipeline state.
func (s PipelineState) String() string {
	switch s {
	case PipelineQueued:
		return "queued"
	case PipelineCreating:
		return "creating"
	case PipelineOk:
		return "ok"
	case PipelineErr:
		return "err"
	default:
		return unknownMode
	}
}

// PipelineCache reports the readiness of compute pipelines.
// The error is the creation failure and is only set with PipelineErr.
type PipelineCache interface {
	ComputePipelineState(id PipelineID) (PipelineState, error)
}

// cpuPipelines is the pipeline cache of the CPU dispatcher. CPU kernels need
// no compilation, so every pipeline is ready.
type cpuPipelines struct{}

func (cpuPipelines) ComputePipelineState(PipelineID) (PipelineState, error) {
	return PipelineOk, nil
}

// NodeState is the stage of a ComputeNode.
type NodeState uint8

const (
	// NodeLoading waits for the init pipeline.
	NodeLoading NodeState = iota

	// NodeInit runs the init pass and waits for the update pipeline.
	NodeInit

	// NodeUpdate runs the update pass every frame.
	NodeUpdate
)

// String returns a string representation of the node state.
func (s NodeState) String() string {
	switch s {
	case NodeLoading:
		return "loading"
	case NodeInit:
		return "init"
	case NodeUpdate:
		return "update"
	default:
		return unknownMode
	}
}

// ComputePass is one dispatch the node asks the backend to encode.
type ComputePass struct {
	Pipeline   PipelineID
	Workgroups UVec3
	Label      string
}

// Kernel returns the CPU kernel of the pass's pipeline.
func (p ComputePass) Kernel() Kernel {
	if p.Pipeline == PipelineInit {
		return InitKernel
	}
	return UpdateKernel
}

// ComputeNode drives the compute passes over a storage texture, one frame at
// a time. It waits for pipelines to become ready before dispatching them.
//
// ComputeNode is not safe for concurrent use.
type ComputeNode struct {
	state    NodeState
	width    int
	height   int
	initPass bool
}

// NewComputeNode creates a node for a width×height texture. If initPass is
// false the node still passes through NodeInit but dispatches nothing there.
func NewComputeNode(width, height int, initPass bool) *ComputeNode {
	return &ComputeNode{width: width, height: height, initPass: initPass}
}

// State returns the current stage.
func (n *ComputeNode) State() NodeState {
	return n.state
}

// Update advances the state machine at most one step.
//
// Loading moves to Init once the init pipeline is ready; Init moves to Update
// once the update pipeline is ready. A failed pipeline leaves the state
// unchanged and returns an error wrapping ErrPipelineFailed.
func (n *ComputeNode) Update(cache PipelineCache) error {
	var want PipelineID
	switch n.state {
	case NodeLoading:
		want = PipelineInit
	case NodeInit:
		want = PipelineUpdate
	default:
		return nil
	}

	state, err := cache.ComputePipelineState(want)
	switch state {
	case PipelineOk:
		n.state++
		return nil
	case PipelineErr:
		if err == nil {
			return fmt.Errorf("%w: %s", ErrPipelineFailed, want)
		}
		return fmt.Errorf("%w: %s: %w", ErrPipelineFailed, want, err)
	default:
		return nil
	}
}

// Run returns the pass to dispatch in the current stage, if any.
func (n *ComputeNode) Run() (ComputePass, bool) {
	switch n.state {
	case NodeInit:
		if !n.initPass {
			return ComputePass{}, false
		}
		return ComputePass{
			Pipeline:   PipelineInit,
			Workgroups: UVec3{X: 1, Y: 1, Z: 1},
			Label:      "proctex init pass",
		}, true
	case NodeUpdate:
		return ComputePass{
			Pipeline:   PipelineUpdate,
			Workgroups: WorkgroupsFor(n.width, n.height),
			Label:      "proctex update pass",
		}, true
	default:
		return ComputePass{}, false
	}
}
