package proctex

import "fmt"

// Workgroup dimensions of every compute entry point (@workgroup_size(8, 8, 1)).
const (
	WorkgroupSizeX = 8
	WorkgroupSizeY = 8
	WorkgroupSizeZ = 1
)

// WorkgroupSize is the fixed 8×8×1 workgroup extent.
var WorkgroupSize = UVec3{X: WorkgroupSizeX, Y: WorkgroupSizeY, Z: WorkgroupSizeZ}

// UVec3 mirrors WGSL's vec3<u32> for invocation built-ins and dispatch sizes.
type UVec3 struct {
	X, Y, Z uint32
}

// Count returns X*Y*Z.
func (v UVec3) Count() uint64 {
	return uint64(v.X) * uint64(v.Y) * uint64(v.Z)
}

// Mul multiplies two vectors component-wise.
func (v UVec3) Mul(o UVec3) UVec3 {
	return UVec3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

// Add adds two vectors component-wise.
func (v UVec3) Add(o UVec3) UVec3 {
	return UVec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// String implements fmt.Stringer.
func (v UVec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// Invocation carries the compute built-ins for a single invocation.
// Kernels receive it by value; nothing outlives the call.
type Invocation struct {
	// LocalInvocationID is the position within the workgroup, in [0, WorkgroupSize).
	LocalInvocationID UVec3

	// GlobalInvocationID is WorkgroupID*WorkgroupSize + LocalInvocationID.
	GlobalInvocationID UVec3

	// WorkgroupID is the position of the workgroup within the dispatch grid.
	WorkgroupID UVec3

	// NumWorkgroups is the dispatch grid size.
	NumWorkgroups UVec3
}

// NewInvocation derives the global ID from a workgroup and local ID.
func NewInvocation(workgroup, local, numWorkgroups UVec3) Invocation {
	return Invocation{
		LocalInvocationID:  local,
		GlobalInvocationID: workgroup.Mul(WorkgroupSize).Add(local),
		WorkgroupID:        workgroup,
		NumWorkgroups:      numWorkgroups,
	}
}

// WorkgroupsFor returns the dispatch grid covering a width×height texture
// with whole workgroups. Integer division drops partial workgroups, so the
// last width%8 columns and height%8 rows are not covered.
func WorkgroupsFor(width, height int) UVec3 {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return UVec3{
		X: uint32(width / WorkgroupSizeX),  //nolint:gosec // non-negative
		Y: uint32(height / WorkgroupSizeY), //nolint:gosec // non-negative
		Z: 1,
	}
}
