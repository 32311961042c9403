package proctex

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Common errors for texture allocation and access.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("proctex: invalid dimensions")

	// ErrTextureTooSmall is returned when a texture cannot hold one 8×8 workgroup.
	ErrTextureTooSmall = errors.New("proctex: texture smaller than one workgroup")

	// ErrNilTexture is returned when an operation requires a texture and got nil.
	ErrNilTexture = errors.New("proctex: nil texture")

	// ErrSizeMismatch is returned when pixel data does not match texture dimensions.
	ErrSizeMismatch = errors.New("proctex: pixel data size mismatch")

	// ErrInvalidViewport is returned for a viewport with non-positive size.
	ErrInvalidViewport = errors.New("proctex: invalid viewport")

	// ErrSameTexture is returned when a render pass would sample its own target.
	ErrSameTexture = errors.New("proctex: render target is the sampled texture")
)

// StorageTexture is a 2D rgba8unorm image addressed by integer texel coordinates.
//
// It plays the role of texture_storage_2d<rgba8unorm, read_write> for the CPU
// kernels and is the host-side mirror of the GPU texture. Pixels are stored
// row by row, 4 bytes per texel, with no padding.
//
// Concurrent Store calls are safe as long as no two of them address the same
// texel; this is the single-writer-per-texel rule of a dispatch.
type StorageTexture struct {
	width  int
	height int
	pix    []uint8
}

// NewStorageTexture allocates a texture filled with opaque black.
func NewStorageTexture(width, height int) (*StorageTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	t := &StorageTexture{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
	t.Fill(Black)
	return t, nil
}

// Width returns the texture width in texels.
func (t *StorageTexture) Width() int { return t.width }

// Height returns the texture height in texels.
func (t *StorageTexture) Height() int { return t.height }

// Pix returns the raw RGBA8 pixel data. The slice aliases the texture.
func (t *StorageTexture) Pix() []uint8 { return t.pix }

// Stride returns the number of bytes per row.
func (t *StorageTexture) Stride() int { return t.width * 4 }

// InBounds reports whether (x, y) addresses a texel.
func (t *StorageTexture) InBounds(x, y int) bool {
	return x >= 0 && x < t.width && y >= 0 && y < t.height
}

// Store writes a texel like textureStore. Out-of-bounds stores are discarded.
func (t *StorageTexture) Store(x, y int, c RGBA) {
	if !t.InBounds(x, y) {
		return
	}
	i := (y*t.width + x) * 4
	t.pix[i+0], t.pix[i+1], t.pix[i+2], t.pix[i+3] = c.Unorm8()
}

// Load reads a texel like textureLoad. Out-of-bounds loads return transparent black.
func (t *StorageTexture) Load(x, y int) RGBA {
	if !t.InBounds(x, y) {
		return Transparent
	}
	i := (y*t.width + x) * 4
	return FromUnorm8(t.pix[i+0], t.pix[i+1], t.pix[i+2], t.pix[i+3])
}

// LoadUnorm8 returns the stored bytes of a texel.
func (t *StorageTexture) LoadUnorm8(x, y int) [4]uint8 {
	if !t.InBounds(x, y) {
		return [4]uint8{}
	}
	i := (y*t.width + x) * 4
	return [4]uint8{t.pix[i+0], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

// Fill sets every texel to c.
func (t *StorageTexture) Fill(c RGBA) {
	r, g, b, a := c.Unorm8()
	for i := 0; i < len(t.pix); i += 4 {
		t.pix[i+0] = r
		t.pix[i+1] = g
		t.pix[i+2] = b
		t.pix[i+3] = a
	}
}

// ReplacePixels overwrites the texture with tightly packed RGBA8 data.
func (t *StorageTexture) ReplacePixels(pix []uint8) error {
	if len(pix) != len(t.pix) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pix), len(t.pix))
	}
	copy(t.pix, pix)
	return nil
}

// Clone returns a deep copy of the texture.
func (t *StorageTexture) Clone() *StorageTexture {
	c := &StorageTexture{width: t.width, height: t.height, pix: make([]uint8, len(t.pix))}
	copy(c.pix, t.pix)
	return c
}

// ToImage copies the texture into an image.NRGBA.
func (t *StorageTexture) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	copy(img.Pix, t.pix)
	return img
}

// FromImage creates a texture holding a copy of img.
func FromImage(img image.Image) (*StorageTexture, error) {
	b := img.Bounds()
	t, err := NewStorageTexture(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			t.Store(x, y, FromColor(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return t, nil
}

// At implements the image.Image interface.
func (t *StorageTexture) At(x, y int) color.Color {
	p := t.LoadUnorm8(x, y)
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Bounds implements the image.Image interface.
func (t *StorageTexture) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.width, t.height)
}

// ColorModel implements the image.Image interface.
func (t *StorageTexture) ColorModel() color.Model {
	return color.NRGBAModel
}
