package proctex

import (
	"fmt"
	"image"
	"math"

	"github.com/xlab/linmath"
)

// Viewport is a rectangle of the render target in physical pixels.
type Viewport struct {
	Origin linmath.Vec2
	Size   linmath.Vec2
}

// NewViewport returns a viewport at (x, y) with the given extent.
func NewViewport(x, y, width, height float32) Viewport {
	return Viewport{
		Origin: linmath.Vec2{x, y},
		Size:   linmath.Vec2{width, height},
	}
}

// FullViewport covers a width×height target from the origin.
func FullViewport(width, height int) Viewport {
	return NewViewport(0, 0, float32(width), float32(height))
}

// ParseViewport parses "x,y,width,height".
func ParseViewport(s string) (Viewport, error) {
	var x, y, w, h float32
	if _, err := fmt.Sscanf(s, "%g,%g,%g,%g", &x, &y, &w, &h); err != nil {
		return Viewport{}, fmt.Errorf("proctex: invalid viewport %q: %w", s, err)
	}
	vp := NewViewport(x, y, w, h)
	if !vp.Valid() {
		return Viewport{}, fmt.Errorf("proctex: viewport %q has non-positive size", s)
	}
	return vp, nil
}

// Valid reports whether the viewport has a positive extent.
func (v Viewport) Valid() bool {
	return v.Size[0] > 0 && v.Size[1] > 0
}

// Vec4 packs the viewport as (x, y, width, height), the layout of the view
// uniform's viewport field.
func (v Viewport) Vec4() linmath.Vec4 {
	return linmath.Vec4{v.Origin[0], v.Origin[1], v.Size[0], v.Size[1]}
}

// PixelBounds returns the pixels whose centers lie inside the viewport,
// intersected with bounds.
func (v Viewport) PixelBounds(bounds image.Rectangle) image.Rectangle {
	// A pixel x is covered when x+0.5 is in [origin, origin+size).
	x0 := int(math.Ceil(float64(v.Origin[0]) - 0.5))
	y0 := int(math.Ceil(float64(v.Origin[1]) - 0.5))
	x1 := int(math.Ceil(float64(v.Origin[0]+v.Size[0]) - 0.5))
	y1 := int(math.Ceil(float64(v.Origin[1]+v.Size[1]) - 0.5))
	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}

// CoordsToViewportUV converts a framebuffer position to a normalized
// viewport coordinate: (position - origin) / size.
func CoordsToViewportUV(position linmath.Vec2, viewport Viewport) linmath.Vec2 {
	return linmath.Vec2{
		(position[0] - viewport.Origin[0]) / viewport.Size[0],
		(position[1] - viewport.Origin[1]) / viewport.Size[1],
	}
}
