package proctex

import "math"

// Kernel is a compute entry point: it runs once per invocation and may only
// touch the texel it owns.
type Kernel func(tex *StorageTexture, inv Invocation)

// MaxDistance is the largest value DistanceColor can produce: the distance
// from a corner of the unit square to its center, √0.5.
var MaxDistance = math.Sqrt(0.5)

// fieldCenter is the point the distance field is measured from, in normalized
// texture coordinates.
const fieldCenterX, fieldCenterY = 0.5, 0.5

// InitColor returns the gradient color the init entry point writes for a
// local invocation: (x/8, y/8, 0, 1).
func InitColor(local UVec3) RGBA {
	return RGBA{
		R: float64(local.X) / WorkgroupSizeX,
		G: float64(local.Y) / WorkgroupSizeY,
		B: 0,
		A: 1,
	}
}

// InitKernel is the CPU form of the init entry point. It writes InitColor at
// the local invocation coordinates, so every workgroup of a dispatch targets
// the same 8×8 region; dispatch it with a single workgroup.
func InitKernel(tex *StorageTexture, inv Invocation) {
	l := inv.LocalInvocationID
	tex.Store(int(l.X), int(l.Y), InitColor(l))
}

// NormalizedCoord maps a global invocation position into [0,1)×[0,1) by
// dividing by the dispatched extent, numWorkgroups*8, in each axis.
func NormalizedCoord(global, numWorkgroups UVec3) (u, v float64) {
	w := float64(numWorkgroups.X) * WorkgroupSizeX
	h := float64(numWorkgroups.Y) * WorkgroupSizeY
	if w > 0 {
		u = float64(global.X) / w
	}
	if h > 0 {
		v = float64(global.Y) / h
	}
	return u, v
}

// FieldDistance returns the Euclidean distance from the normalized position of
// a global invocation to the field center (0.5, 0.5).
func FieldDistance(global, numWorkgroups UVec3) float64 {
	u, v := NormalizedCoord(global, numWorkgroups)
	return math.Hypot(u-fieldCenterX, v-fieldCenterY)
}

// DistanceColor returns the grayscale color the update entry point writes:
// the field distance replicated across R, G and B with alpha 1.
func DistanceColor(global, numWorkgroups UVec3) RGBA {
	return Gray(FieldDistance(global, numWorkgroups))
}

// UpdateKernel is the CPU form of the update entry point. It regenerates the
// texel at the global invocation coordinates from scratch.
func UpdateKernel(tex *StorageTexture, inv Invocation) {
	g := inv.GlobalInvocationID
	tex.Store(int(g.X), int(g.Y), DistanceColor(g, inv.NumWorkgroups))
}
