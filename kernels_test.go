package proctex

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestInitColor(t *testing.T) {
	tests := []struct {
		local UVec3
		want  RGBA
	}{
		{UVec3{0, 0, 0}, RGBA{R: 0, G: 0, B: 0, A: 1}},
		{UVec3{4, 2, 0}, RGBA{R: 0.5, G: 0.25, B: 0, A: 1}},
		{UVec3{7, 7, 0}, RGBA{R: 0.875, G: 0.875, B: 0, A: 1}},
	}
	for _, tt := range tests {
		if got := InitColor(tt.local); got != tt.want {
			t.Errorf("InitColor(%v) = %v, want %v", tt.local, got, tt.want)
		}
	}
}

func TestInitKernelWritesLocalCoordinates(t *testing.T) {
	tex, _ := NewStorageTexture(32, 32)

	// Workgroup (3, 2) still writes to the local 8×8 corner.
	inv := NewInvocation(UVec3{3, 2, 0}, UVec3{4, 2, 0}, UVec3{4, 4, 1})
	InitKernel(tex, inv)

	if got := tex.LoadUnorm8(4, 2); got != [4]uint8{128, 64, 0, 255} {
		t.Errorf("texel (4, 2) = %v, want [128 64 0 255]", got)
	}
	g := inv.GlobalInvocationID
	if got := tex.LoadUnorm8(int(g.X), int(g.Y)); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("texel at global %v = %v, want untouched", g, got)
	}
}

func TestFieldDistance(t *testing.T) {
	tests := []struct {
		name   string
		global UVec3
		groups UVec3
		want   float64
	}{
		{"centre of 64x64", UVec3{32, 32, 0}, UVec3{8, 8, 1}, 0},
		{"centre of 16x16", UVec3{8, 8, 0}, UVec3{2, 2, 1}, 0},
		{"corner", UVec3{0, 0, 0}, UVec3{8, 8, 1}, math.Sqrt(0.5)},
		{"edge midpoint", UVec3{0, 32, 0}, UVec3{8, 8, 1}, 0.5},
		{"non-square", UVec3{320, 0, 0}, UVec3{80, 60, 1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldDistance(tt.global, tt.groups)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("FieldDistance(%v, %v) = %v, want %v", tt.global, tt.groups, got, tt.want)
			}
		})
	}
}

func TestFieldDistanceRange(t *testing.T) {
	groups := WorkgroupsFor(64, 48)
	for y := uint32(0); y < 48; y++ {
		for x := uint32(0); x < 64; x++ {
			d := FieldDistance(UVec3{x, y, 0}, groups)
			if d < 0 || d > MaxDistance+eps {
				t.Fatalf("FieldDistance at (%d, %d) = %v, outside [0, %v]", x, y, d, MaxDistance)
			}
		}
	}
}

func TestDistanceColor(t *testing.T) {
	c := DistanceColor(UVec3{0, 0, 0}, UVec3{8, 8, 1})
	if c.R != c.G || c.G != c.B || c.A != 1 {
		t.Errorf("DistanceColor = %v, want gray with alpha 1", c)
	}
	if r, _, _, _ := c.Unorm8(); r != 180 {
		t.Errorf("corner byte = %d, want 180", r)
	}
}

func TestUpdateKernelWritesGlobalCoordinates(t *testing.T) {
	tex, _ := NewStorageTexture(64, 64)
	groups := UVec3{8, 8, 1}

	InitKernel(tex, NewInvocation(UVec3{}, UVec3{0, 0, 0}, groups))
	UpdateKernel(tex, NewInvocation(UVec3{4, 4, 0}, UVec3{0, 0, 0}, groups))
	UpdateKernel(tex, NewInvocation(UVec3{0, 0, 0}, UVec3{0, 0, 0}, groups))

	if got := tex.LoadUnorm8(32, 32); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("centre texel = %v, want [0 0 0 255]", got)
	}
	// The update overwrites whatever init wrote.
	if got := tex.LoadUnorm8(0, 0); got != [4]uint8{180, 180, 180, 255} {
		t.Errorf("corner texel = %v, want [180 180 180 255]", got)
	}
}

func TestNormalizedCoordZeroGroups(t *testing.T) {
	u, v := NormalizedCoord(UVec3{5, 5, 0}, UVec3{})
	if u != 0 || v != 0 {
		t.Errorf("NormalizedCoord with zero groups = (%v, %v), want (0, 0)", u, v)
	}
}
