package proctex

import (
	"fmt"
	"math"

	"github.com/xlab/linmath"
)

// FilterMode selects how texels are combined when sampling.
type FilterMode uint8

const (
	// FilterNearest selects the texel containing the coordinate.
	FilterNearest FilterMode = iota

	// FilterLinear blends the four texels around the coordinate.
	FilterLinear
)

// String returns a string representation of the filter mode.
func (m FilterMode) String() string {
	switch m {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return unknownMode
	}
}

// ParseFilterMode parses "nearest" or "linear".
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "nearest":
		return FilterNearest, nil
	case "linear":
		return FilterLinear, nil
	}
	return 0, fmt.Errorf("proctex: unknown filter mode %q", s)
}

// AddressMode determines how texel indices outside the texture are resolved.
type AddressMode uint8

const (
	// AddressClampToEdge clamps indices to the nearest edge texel.
	AddressClampToEdge AddressMode = iota

	// AddressRepeat tiles the texture.
	AddressRepeat

	// AddressMirrorRepeat tiles the texture, mirroring every other tile.
	AddressMirrorRepeat
)

const unknownMode = "unknown"

// String returns a string representation of the address mode.
func (m AddressMode) String() string {
	switch m {
	case AddressClampToEdge:
		return "clamp"
	case AddressRepeat:
		return "repeat"
	case AddressMirrorRepeat:
		return "mirror"
	default:
		return unknownMode
	}
}

// ParseAddressMode parses "clamp", "repeat" or "mirror".
func ParseAddressMode(s string) (AddressMode, error) {
	switch s {
	case "clamp":
		return AddressClampToEdge, nil
	case "repeat":
		return AddressRepeat, nil
	case "mirror":
		return AddressMirrorRepeat, nil
	}
	return 0, fmt.Errorf("proctex: unknown address mode %q", s)
}

// resolve maps a possibly out-of-range texel index into [0, n).
func (m AddressMode) resolve(i, n int) int {
	switch m {
	case AddressRepeat:
		return ((i % n) + n) % n
	case AddressMirrorRepeat:
		period := 2 * n
		i = ((i % period) + period) % period
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return clampInt(i, 0, n-1)
	}
}

// Sampler describes how a sampled texture is read.
// The texture has a single mip level, so MinFilter only applies when the
// sampled footprint is larger than one texel.
type Sampler struct {
	MagFilter    FilterMode
	MinFilter    FilterMode
	AddressModeU AddressMode
	AddressModeV AddressMode
}

// DefaultSampler returns linear filtering with clamp-to-edge addressing.
func DefaultSampler() Sampler {
	return Sampler{
		MagFilter:    FilterLinear,
		MinFilter:    FilterLinear,
		AddressModeU: AddressClampToEdge,
		AddressModeV: AddressClampToEdge,
	}
}

// NearestSampler returns nearest filtering with clamp-to-edge addressing.
func NearestSampler() Sampler {
	return Sampler{
		MagFilter:    FilterNearest,
		MinFilter:    FilterNearest,
		AddressModeU: AddressClampToEdge,
		AddressModeV: AddressClampToEdge,
	}
}

// Sample reads tex at normalized coordinates uv under magnification,
// like textureSample with a footprint of at most one texel.
func (s Sampler) Sample(tex *StorageTexture, uv linmath.Vec2) RGBA {
	return s.SampleLevel(tex, uv, 0)
}

// SampleLevel reads tex at uv for the given level of detail.
// A positive lod (footprint larger than one texel) selects MinFilter,
// otherwise MagFilter.
func (s Sampler) SampleLevel(tex *StorageTexture, uv linmath.Vec2, lod float64) RGBA {
	if tex == nil {
		return Transparent
	}
	filter := s.MagFilter
	if lod > 0 {
		filter = s.MinFilter
	}
	u, v := float64(uv[0]), float64(uv[1])
	if filter == FilterNearest {
		return s.nearest(tex, u, v)
	}
	return s.bilinear(tex, u, v)
}

func (s Sampler) nearest(tex *StorageTexture, u, v float64) RGBA {
	w, h := tex.Width(), tex.Height()
	x := s.AddressModeU.resolve(floorInt(u*float64(w)), w)
	y := s.AddressModeV.resolve(floorInt(v*float64(h)), h)
	return tex.Load(x, y)
}

func (s Sampler) bilinear(tex *StorageTexture, u, v float64) RGBA {
	w, h := tex.Width(), tex.Height()

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	xa := s.AddressModeU.resolve(x0, w)
	xb := s.AddressModeU.resolve(x0+1, w)
	ya := s.AddressModeV.resolve(y0, h)
	yb := s.AddressModeV.resolve(y0+1, h)

	top := tex.Load(xa, ya).Lerp(tex.Load(xb, ya), tx)
	bottom := tex.Load(xa, yb).Lerp(tex.Load(xb, yb), tx)
	return top.Lerp(bottom, ty)
}

func floorInt(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	f := math.Floor(x)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
