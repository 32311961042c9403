package proctex

import (
	"context"
	"image"
	"math"

	"github.com/xlab/linmath"

	"github.com/gogpu/proctex/internal/parallel"
)

// MeshVertexOutput is the interpolated vertex stage output handed to the
// fragment stage. The viewport material ignores it.
type MeshVertexOutput struct {
	WorldPosition linmath.Vec4
	WorldNormal   linmath.Vec3
	UV            linmath.Vec2
}

// Material binds a colour, a texture and a sampler for the fragment stage.
type Material struct {
	// Color is uploaded with the material but not applied to the output.
	Color RGBA

	Texture *StorageTexture
	Sampler Sampler
}

// NewMaterial returns a material sampling tex with the default sampler.
func NewMaterial(tex *StorageTexture) *Material {
	return &Material{
		Color:   White,
		Texture: tex,
		Sampler: DefaultSampler(),
	}
}

// Fragment shades one fragment. position is the framebuffer position
// (pixel centre in xy); the result is the texture sampled at the position's
// viewport UV, returned unchanged.
func (m *Material) Fragment(position linmath.Vec4, _ MeshVertexOutput, viewport Viewport) RGBA {
	if m == nil || m.Texture == nil {
		return Transparent
	}
	uv := CoordsToViewportUV(linmath.Vec2{position[0], position[1]}, viewport)
	// return m.Color.Mul(m.Sampler.SampleLevel(m.Texture, uv, lod))
	return m.Sampler.SampleLevel(m.Texture, uv, m.lod(viewport))
}

// lod is log2 of the texels covered by one pixel along the larger axis.
func (m *Material) lod(viewport Viewport) float64 {
	sx := float64(m.Texture.Width()) / float64(viewport.Size[0])
	sy := float64(m.Texture.Height()) / float64(viewport.Size[1])
	return math.Log2(math.Max(sx, sy))
}

// RenderViewport shades every pixel of dst whose centre lies inside the
// viewport. Rows are shaded in parallel on pool. Pixels outside the
// viewport are left untouched.
func RenderViewport(ctx context.Context, pool *parallel.WorkgroupPool, m *Material, viewport Viewport, dst *StorageTexture) error {
	if dst == nil || m == nil || m.Texture == nil {
		return ErrNilTexture
	}
	if !viewport.Valid() {
		return ErrInvalidViewport
	}
	if m.Texture == dst {
		return ErrSameTexture
	}

	r := viewport.PixelBounds(dst.Bounds())
	if r.Empty() {
		return ctx.Err()
	}
	return pool.Run(ctx, r.Dy(), func(row int) {
		shadeRow(m, viewport, dst, r, r.Min.Y+row)
	})
}

func shadeRow(m *Material, viewport Viewport, dst *StorageTexture, r image.Rectangle, y int) {
	var mesh MeshVertexOutput
	fy := float32(y) + 0.5
	for x := r.Min.X; x < r.Max.X; x++ {
		pos := linmath.Vec4{float32(x) + 0.5, fy, 0, 1}
		dst.Store(x, y, m.Fragment(pos, mesh, viewport))
	}
}
