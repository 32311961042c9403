package proctex

import (
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this operation.
// The caller should transparently fall back to the CPU dispatcher.
var ErrFallbackToCPU = errors.New("proctex: falling back to CPU")

// ComputeAccelerator is an optional GPU provider for the compute and
// viewport passes.
//
// When registered via RegisterAccelerator, a Generator dispatches passes on
// the accelerator first. If the accelerator returns an error, the pass is
// rerun on the CPU.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/proctex/gpu" // enables GPU dispatch
type ComputeAccelerator interface {
	// Name returns the accelerator name (e.g., "vulkan").
	Name() string

	// Init prepares the accelerator. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// ComputePipelineState reports the readiness of a compute pipeline.
	PipelineCache

	// Dispatch runs pass over target. target is uploaded before the pass
	// and holds the result afterwards.
	Dispatch(target *StorageTexture, pass ComputePass) error

	// RenderViewport shades dst through the material's fragment stage.
	RenderViewport(m *Material, viewport Viewport, dst *StorageTexture) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// reuse a GPU device owned by the host application.
type DeviceProviderAware interface {
	SetDeviceProvider(provider gpucontext.DeviceProvider) error
}

var (
	accelMu sync.RWMutex
	accel   ComputeAccelerator
)

// RegisterAccelerator registers a compute accelerator.
//
// Only one accelerator can be registered. Subsequent calls replace and close
// the previous one. Init is called during registration; if it fails the
// accelerator is not registered and the error is returned.
func RegisterAccelerator(a ComputeAccelerator) error {
	if a == nil {
		return errors.New("proctex: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("accelerator registered", "name", a.Name())
	return nil
}

// Accelerator returns the registered accelerator, or nil if none.
func Accelerator() ComputeAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// CloseAccelerator closes and unregisters the registered accelerator.
func CloseAccelerator() {
	accelMu.Lock()
	a := accel
	accel = nil
	accelMu.Unlock()
	if a != nil {
		a.Close()
	}
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator so it shares the host's GPU device. If no accelerator is
// registered or it cannot share devices, this is a no-op.
func SetAcceleratorDeviceProvider(provider gpucontext.DeviceProvider) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
