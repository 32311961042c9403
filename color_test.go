package proctex

import (
	"image/color"
	"math"
	"testing"
)

func TestRGBAUnorm8(t *testing.T) {
	tests := []struct {
		name string
		c    RGBA
		want [4]uint8
	}{
		{"black", Black, [4]uint8{0, 0, 0, 255}},
		{"white", White, [4]uint8{255, 255, 255, 255}},
		{"transparent", Transparent, [4]uint8{0, 0, 0, 0}},
		{"half rounds up", RGBA{R: 0.5, G: 0.25, B: 0, A: 1}, [4]uint8{128, 64, 0, 255}},
		{"seven eighths", RGBA{R: 0.875, G: 0.875, B: 0, A: 1}, [4]uint8{223, 223, 0, 255}},
		{"clamped", RGBA{R: -1, G: 2, B: math.NaN(), A: 1.5}, [4]uint8{0, 255, 0, 255}},
		{"max distance", Gray(math.Sqrt(0.5)), [4]uint8{180, 180, 180, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.Unorm8()
			if got := [4]uint8{r, g, b, a}; got != tt.want {
				t.Errorf("%v.Unorm8() = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestFromUnorm8RoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		b := uint8(v)
		c := FromUnorm8(b, b, b, b)
		r, g, bb, a := c.Unorm8()
		if r != b || g != b || bb != b || a != b {
			t.Fatalf("round trip of %d = (%d, %d, %d, %d)", v, r, g, bb, a)
		}
	}
}

func TestRGBALerp(t *testing.T) {
	c := Black.Lerp(White, 0.5)
	want := RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if c != want {
		t.Errorf("Black.Lerp(White, 0.5) = %v, want %v", c, want)
	}
	if got := Black.Lerp(White, 0); got != Black {
		t.Errorf("Lerp(t=0) = %v, want %v", got, Black)
	}
	if got := Black.Lerp(White, 1); got != White {
		t.Errorf("Lerp(t=1) = %v, want %v", got, White)
	}
}

func TestRGBAMul(t *testing.T) {
	got := RGBA{R: 0.5, G: 1, B: 0.25, A: 1}.Mul(RGBA{R: 0.5, G: 0.5, B: 1, A: 0.5})
	want := RGBA{R: 0.25, G: 0.5, B: 0.25, A: 0.5}
	if got != want {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestRGBAColor(t *testing.T) {
	c := RGBA{R: 1, G: 0.5, B: 0, A: 1}.Color()
	n, ok := c.(color.NRGBA)
	if !ok {
		t.Fatalf("Color() returned %T, want color.NRGBA", c)
	}
	if n != (color.NRGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("Color() = %v", n)
	}

	back := FromColor(n)
	if r, g, b, a := back.Unorm8(); r != 255 || g != 128 || b != 0 || a != 255 {
		t.Errorf("FromColor(Color()) = %v", back)
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in      string
		want    [4]uint8
		wantErr bool
	}{
		{"#fff", [4]uint8{255, 255, 255, 255}, false},
		{"f008", [4]uint8{255, 0, 0, 136}, false},
		{"#336699", [4]uint8{0x33, 0x66, 0x99, 255}, false},
		{"33669980", [4]uint8{0x33, 0x66, 0x99, 0x80}, false},
		{"", [4]uint8{}, true},
		{"#12", [4]uint8{}, true},
		{"zzzzzz", [4]uint8{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Hex(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Hex(%q) = %v, want error", tt.in, c)
				}
				return
			}
			if err != nil {
				t.Fatalf("Hex(%q) error: %v", tt.in, err)
			}
			r, g, b, a := c.Unorm8()
			if got := [4]uint8{r, g, b, a}; got != tt.want {
				t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBAFloat32(t *testing.T) {
	got := RGBA{R: 0.25, G: 0.5, B: 0.75, A: 1}.Float32()
	want := [4]float32{0.25, 0.5, 0.75, 1}
	if got != want {
		t.Errorf("Float32() = %v, want %v", got, want)
	}
}
