package proctex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newCPUGenerator(t *testing.T, w, h int, opts ...Option) *Generator {
	t.Helper()
	g, err := NewGenerator(w, h, append([]Option{WithCPUOnly(), WithWorkers(2)}, opts...)...)
	if err != nil {
		t.Fatalf("NewGenerator(%d, %d): %v", w, h, err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestNewGeneratorDimensions(t *testing.T) {
	tests := []struct {
		w, h int
		want error
	}{
		{0, 480, ErrInvalidDimensions},
		{640, -1, ErrInvalidDimensions},
		{7, 480, ErrTextureTooSmall},
		{640, 4, ErrTextureTooSmall},
	}
	for _, tt := range tests {
		g, err := NewGenerator(tt.w, tt.h, WithCPUOnly())
		if !errors.Is(err, tt.want) {
			t.Errorf("NewGenerator(%d, %d) error = %v, want %v", tt.w, tt.h, err, tt.want)
		}
		if g != nil {
			g.Close()
		}
	}
}

func TestGeneratorInitialTexture(t *testing.T) {
	g := newCPUGenerator(t, 640, 480)

	tex := g.Texture()
	if tex.Width() != 640 || tex.Height() != 480 {
		t.Fatalf("texture %dx%d, want 640x480", tex.Width(), tex.Height())
	}
	if got := tex.LoadUnorm8(100, 100); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("initial texel = %v, want opaque black", got)
	}
	if g.State() != NodeLoading || g.FrameCount() != 0 {
		t.Errorf("state %v frames %d, want loading 0", g.State(), g.FrameCount())
	}
	if g.AcceleratorName() != "cpu" {
		t.Errorf("AcceleratorName() = %q, want cpu", g.AcceleratorName())
	}
}

func TestGeneratorFrames(t *testing.T) {
	g := newCPUGenerator(t, 64, 64)
	ctx := context.Background()
	tex := g.Texture()

	// Frame 1: loading -> init, init pass writes the 8x8 gradient.
	if err := g.Frame(ctx); err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	if g.State() != NodeInit {
		t.Fatalf("state after frame 1 = %v, want init", g.State())
	}
	if got := tex.LoadUnorm8(4, 2); got != [4]uint8{128, 64, 0, 255} {
		t.Errorf("gradient texel (4, 2) = %v", got)
	}
	if got := tex.LoadUnorm8(8, 8); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("texel (8, 8) = %v, want untouched by init", got)
	}

	// Frame 2: init -> update, the distance field replaces everything.
	if err := g.Frame(ctx); err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if g.State() != NodeUpdate {
		t.Fatalf("state after frame 2 = %v, want update", g.State())
	}
	if got := tex.LoadUnorm8(32, 32); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("centre = %v, want black", got)
	}
	if got := tex.LoadUnorm8(0, 0); got != [4]uint8{180, 180, 180, 255} {
		t.Errorf("corner = %v, want [180 180 180 255]", got)
	}

	// Later frames are idempotent.
	before := append([]uint8(nil), tex.Pix()...)
	if err := g.Frame(ctx); err != nil {
		t.Fatalf("frame 3: %v", err)
	}
	if !bytes.Equal(before, tex.Pix()) {
		t.Error("update pass is not idempotent")
	}
	if g.FrameCount() != 3 {
		t.Errorf("FrameCount() = %d, want 3", g.FrameCount())
	}
}

func TestGeneratorCancelled(t *testing.T) {
	g := newCPUGenerator(t, 64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Frame(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Frame = %v, want context.Canceled", err)
	}
	if g.FrameCount() != 0 {
		t.Errorf("FrameCount() = %d after cancelled frame", g.FrameCount())
	}
}

func TestGeneratorClosed(t *testing.T) {
	g, err := NewGenerator(8, 8, WithCPUOnly())
	if err != nil {
		t.Fatal(err)
	}
	g.Close()
	g.Close()

	if err := g.Frame(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close = %v, want ErrClosed", err)
	}
	dst, _ := NewStorageTexture(8, 8)
	if err := g.RenderViewport(context.Background(), FullViewport(8, 8), dst); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderViewport after Close = %v, want ErrClosed", err)
	}
}

func TestGeneratorAcceleratorDispatch(t *testing.T) {
	mock := &mockAccelerator{name: "mock-gpu"}
	g, err := NewGenerator(64, 32, WithAccelerator(mock), WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}

	for range 2 {
		if err := g.Frame(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if len(mock.passes) != 2 {
		t.Fatalf("accelerator got %d passes, want 2", len(mock.passes))
	}
	if p := mock.passes[0]; p.Pipeline != PipelineInit || p.Workgroups != (UVec3{1, 1, 1}) {
		t.Errorf("first pass = %+v", p)
	}
	if p := mock.passes[1]; p.Pipeline != PipelineUpdate || p.Workgroups != (UVec3{8, 4, 1}) {
		t.Errorf("second pass = %+v", p)
	}
	// The mock does not write; the CPU must not have run either.
	if got := g.Texture().LoadUnorm8(0, 0); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("texture written although the accelerator handled the pass: %v", got)
	}
	if g.AcceleratorName() != "mock-gpu" {
		t.Errorf("AcceleratorName() = %q", g.AcceleratorName())
	}

	g.Close()
	if !mock.isClosed() {
		t.Error("injected accelerator not closed by Close")
	}
}

func TestGeneratorFallbackToCPU(t *testing.T) {
	for _, dispatchErr := range []error{ErrFallbackToCPU, errors.New("device lost")} {
		mock := &mockAccelerator{name: "flaky", dispatchErr: dispatchErr}
		g, err := NewGenerator(64, 64, WithAccelerator(mock))
		if err != nil {
			t.Fatal(err)
		}

		for range 2 {
			if err := g.Frame(context.Background()); err != nil {
				t.Fatalf("Frame with %v: %v", dispatchErr, err)
			}
		}
		if got := g.Texture().LoadUnorm8(0, 0); got != [4]uint8{180, 180, 180, 255} {
			t.Errorf("fallback after %v: corner = %v", dispatchErr, got)
		}
		g.Close()
	}
}

func TestGeneratorPipelineFailureDropsAccelerator(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	mock := &mockAccelerator{
		name:          "broken",
		pipelineState: PipelineErr,
		pipelineErr:   errors.New("spirv rejected"),
	}
	g, err := NewGenerator(16, 16, WithAccelerator(mock))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	if err := g.Frame(context.Background()); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if g.AcceleratorName() != "cpu" {
		t.Errorf("AcceleratorName() = %q, want cpu after pipeline failure", g.AcceleratorName())
	}
	if !mock.isClosed() {
		t.Error("failed accelerator not closed")
	}
	if g.State() != NodeInit {
		t.Errorf("state = %v, want init", g.State())
	}
	if !strings.Contains(buf.String(), "accelerator pipeline failed") {
		t.Errorf("expected a warning in the log, got: %s", buf.String())
	}
}

func TestGeneratorAcceleratorInitError(t *testing.T) {
	initErr := errors.New("no adapter")
	_, err := NewGenerator(8, 8, WithAccelerator(&mockAccelerator{name: "x", initErr: initErr}))
	if !errors.Is(err, initErr) {
		t.Errorf("NewGenerator = %v, want wrapped init error", err)
	}
}

func TestGeneratorUsesRegisteredAccelerator(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	mock := &mockAccelerator{name: "registered"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if g.AcceleratorName() != "registered" {
		t.Errorf("AcceleratorName() = %q", g.AcceleratorName())
	}
	g.Close()
	if mock.isClosed() {
		t.Error("Close must not close a registered accelerator")
	}

	cpu := newCPUGenerator(t, 8, 8)
	if cpu.AcceleratorName() != "cpu" {
		t.Errorf("WithCPUOnly: AcceleratorName() = %q", cpu.AcceleratorName())
	}
}

func TestGeneratorRenderViewport(t *testing.T) {
	g := newCPUGenerator(t, 64, 64, WithSampler(NearestSampler()), WithMaterialColor(RGB(1, 0, 0)))
	ctx := context.Background()
	for range 2 {
		if err := g.Frame(ctx); err != nil {
			t.Fatal(err)
		}
	}

	dst, _ := NewStorageTexture(64, 64)
	if err := g.RenderViewport(ctx, FullViewport(64, 64), dst); err != nil {
		t.Fatalf("RenderViewport: %v", err)
	}
	// Same size and nearest filtering: an exact copy, colour not applied.
	if !bytes.Equal(dst.Pix(), g.Texture().Pix()) {
		t.Error("viewport rendering differs from the texture")
	}

	if err := g.RenderViewport(ctx, NewViewport(0, 0, 0, 0), dst); !errors.Is(err, ErrInvalidViewport) {
		t.Errorf("empty viewport: %v", err)
	}
	if err := g.RenderViewport(ctx, FullViewport(64, 64), nil); !errors.Is(err, ErrNilTexture) {
		t.Errorf("nil target: %v", err)
	}
	if err := g.RenderViewport(ctx, FullViewport(64, 64), g.Texture()); !errors.Is(err, ErrSameTexture) {
		t.Errorf("generated texture as target: %v", err)
	}
}

func TestGeneratorRenderViewportAccelerator(t *testing.T) {
	mock := &mockAccelerator{name: "gpu", renderErr: ErrFallbackToCPU}
	g, err := NewGenerator(8, 8, WithAccelerator(mock), WithSampler(NearestSampler()))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	g.Texture().Fill(White)
	dst, _ := NewStorageTexture(8, 8)
	if err := g.RenderViewport(context.Background(), FullViewport(8, 8), dst); err != nil {
		t.Fatal(err)
	}
	if mock.renders != 1 {
		t.Errorf("accelerator renders = %d, want 1", mock.renders)
	}
	if got := dst.LoadUnorm8(3, 3); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("CPU fallback pixel = %v, want white", got)
	}
}
