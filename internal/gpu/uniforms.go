//go:build !nogpu

package gpu

import (
	"unsafe"

	"github.com/xlab/linmath"
	"honnef.co/go/safeish"

	"github.com/gogpu/proctex"
)

// viewUniform mirrors the WGSL View struct.
type viewUniform struct {
	Viewport linmath.Vec4
}

// materialUniform mirrors the WGSL ViewportMaterial struct.
type materialUniform struct {
	Color [4]float32
}

const (
	viewUniformSize     = uint64(unsafe.Sizeof(viewUniform{}))
	materialUniformSize = uint64(unsafe.Sizeof(materialUniform{}))
)

func packView(vp proctex.Viewport) []byte {
	u := viewUniform{Viewport: vp.Vec4()}
	return append([]byte(nil), safeish.AsBytes(&u)...)
}

func packMaterial(c proctex.RGBA) []byte {
	u := materialUniform{Color: c.Float32()}
	return append([]byte(nil), safeish.AsBytes(&u)...)
}

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// alignedRowPitch returns the staging row pitch for a texture of the given
// width, 4 bytes per texel.
func alignedRowPitch(width uint32) uint32 {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// unpadRows copies rows of width*4 bytes out of a buffer with the given
// row pitch into a tightly packed slice.
func unpadRows(dst, src []byte, width, height, pitch uint32) {
	row := int(width * 4)
	for y := 0; y < int(height); y++ {
		copy(dst[y*row:(y+1)*row], src[y*int(pitch):y*int(pitch)+row])
	}
}
