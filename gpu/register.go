//go:build !nogpu

package gpu

import (
	"github.com/gogpu/proctex"
	gpuimpl "github.com/gogpu/proctex/internal/gpu"
)

func init() {
	if err := proctex.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		proctex.Logger().Warn("GPU accelerator not available", "err", err)
	}
}
