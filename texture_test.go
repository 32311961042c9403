package proctex

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewStorageTexture(t *testing.T) {
	tex, err := NewStorageTexture(640, 480)
	if err != nil {
		t.Fatalf("NewStorageTexture: %v", err)
	}
	if tex.Width() != 640 || tex.Height() != 480 {
		t.Errorf("size = %dx%d, want 640x480", tex.Width(), tex.Height())
	}
	if tex.Stride() != 640*4 {
		t.Errorf("Stride() = %d, want %d", tex.Stride(), 640*4)
	}
	if len(tex.Pix()) != 640*480*4 {
		t.Errorf("len(Pix()) = %d", len(tex.Pix()))
	}
	for _, p := range [][2]int{{0, 0}, {639, 479}, {320, 240}} {
		if got := tex.LoadUnorm8(p[0], p[1]); got != [4]uint8{0, 0, 0, 255} {
			t.Errorf("texel %v = %v, want opaque black", p, got)
		}
	}
}

func TestNewStorageTextureInvalid(t *testing.T) {
	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		_, err := NewStorageTexture(sz[0], sz[1])
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewStorageTexture(%d, %d) error = %v, want ErrInvalidDimensions", sz[0], sz[1], err)
		}
	}
}

func TestStorageTextureStoreLoad(t *testing.T) {
	tex, _ := NewStorageTexture(4, 4)

	tex.Store(1, 2, RGBA{R: 1, G: 0.5, B: 0, A: 1})
	if got := tex.LoadUnorm8(1, 2); got != [4]uint8{255, 128, 0, 255} {
		t.Errorf("LoadUnorm8(1, 2) = %v", got)
	}
	if got := tex.Load(1, 2); got.R != 1 || got.B != 0 || got.A != 1 {
		t.Errorf("Load(1, 2) = %v", got)
	}

	// Neighbours untouched.
	if got := tex.LoadUnorm8(2, 2); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("LoadUnorm8(2, 2) = %v, want untouched", got)
	}
}

func TestStorageTextureOutOfBounds(t *testing.T) {
	tex, _ := NewStorageTexture(2, 2)
	before := append([]uint8(nil), tex.Pix()...)

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {100, 100}} {
		tex.Store(p[0], p[1], White)
		if got := tex.Load(p[0], p[1]); got != Transparent {
			t.Errorf("Load%v = %v, want transparent", p, got)
		}
	}
	for i := range before {
		if tex.Pix()[i] != before[i] {
			t.Fatalf("out-of-bounds store modified byte %d", i)
		}
	}
}

func TestStorageTextureReplacePixels(t *testing.T) {
	tex, _ := NewStorageTexture(2, 1)
	if err := tex.ReplacePixels([]uint8{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("ReplacePixels: %v", err)
	}
	if got := tex.LoadUnorm8(1, 0); got != [4]uint8{5, 6, 7, 8} {
		t.Errorf("LoadUnorm8(1, 0) = %v", got)
	}
	if err := tex.ReplacePixels([]uint8{1}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("ReplacePixels(short) = %v, want ErrSizeMismatch", err)
	}
}

func TestStorageTextureClone(t *testing.T) {
	tex, _ := NewStorageTexture(2, 2)
	c := tex.Clone()
	c.Store(0, 0, White)
	if tex.LoadUnorm8(0, 0) == c.LoadUnorm8(0, 0) {
		t.Error("Clone shares pixel storage with the original")
	}
}

func TestStorageTextureImage(t *testing.T) {
	tex, _ := NewStorageTexture(3, 2)
	tex.Store(2, 1, RGB(1, 0, 0))

	var _ image.Image = tex
	if tex.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Bounds() = %v", tex.Bounds())
	}
	if got := tex.At(2, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("At(2, 1) = %v", got)
	}

	img := tex.ToImage()
	if got := img.NRGBAAt(2, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("ToImage().NRGBAAt(2, 1) = %v", got)
	}

	back, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	for i, b := range back.Pix() {
		if b != tex.Pix()[i] {
			t.Fatalf("FromImage(ToImage()) differs at byte %d", i)
		}
	}
}
