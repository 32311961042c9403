// Package gpu registers the Vulkan accelerator for the proctex compute and
// viewport passes.
//
// The device is opened on the first frame. If that fails (no Vulkan driver,
// no adapter, shader rejected), the generator logs a warning and continues
// on the CPU dispatcher.
//
// Usage:
//
//	import _ "github.com/gogpu/proctex/gpu" // enable GPU dispatch
//
// Build with -tags nogpu to exclude the GPU path entirely; SetDeviceProvider
// is then a no-op.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/proctex"
)

// SetDeviceProvider makes the GPU accelerator use a device owned by the host
// application instead of opening its own.
//
// The provider must also expose HalDevice() any and HalQueue() any returning
// the HAL device and queue. Call it before the first frame.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return proctex.SetAcceleratorDeviceProvider(provider)
}
