package proctex

import (
	"context"
	"fmt"

	"github.com/gogpu/proctex/internal/parallel"
)

// Dispatch runs kernel over a grid of groups workgroups on the CPU.
//
// Each workgroup is one job on the pool; its 8×8×1 invocations run in order,
// x fastest. There is no ordering between workgroups, matching the GPU.
// The context is checked before each workgroup starts.
func Dispatch(ctx context.Context, pool *parallel.WorkgroupPool, tex *StorageTexture, groups UVec3, kernel Kernel) error {
	if tex == nil {
		return ErrNilTexture
	}
	if kernel == nil {
		return fmt.Errorf("proctex: nil kernel")
	}
	n := groups.Count()
	if n == 0 {
		return ctx.Err()
	}
	if n > uint64(maxDispatchGroups) {
		return fmt.Errorf("proctex: dispatch %v exceeds %d workgroups", groups, maxDispatchGroups)
	}

	gx, gy := int(groups.X), int(groups.Y)
	return pool.Run(ctx, int(n), func(i int) {
		//nolint:gosec // each component is bounded by the matching groups component
		wg := UVec3{X: uint32(i % gx), Y: uint32((i / gx) % gy), Z: uint32(i / (gx * gy))}
		runWorkgroup(tex, wg, groups, kernel)
	})
}

// maxDispatchGroups bounds a single CPU dispatch.
const maxDispatchGroups = 1<<31 - 1

func runWorkgroup(tex *StorageTexture, wg, groups UVec3, kernel Kernel) {
	for z := uint32(0); z < WorkgroupSizeZ; z++ {
		for y := uint32(0); y < WorkgroupSizeY; y++ {
			for x := uint32(0); x < WorkgroupSizeX; x++ {
				kernel(tex, NewInvocation(wg, UVec3{X: x, Y: y, Z: z}, groups))
			}
		}
	}
}
