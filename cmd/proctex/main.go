// Command proctex runs the procedural texture passes and writes the result,
// optionally rendered through a viewport, to an image file.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gogpu/proctex"
	_ "github.com/gogpu/proctex/gpu" // registers the GPU accelerator
)

type config struct {
	width, height int
	frames        int
	workers       int
	out           string
	view          string
	viewWidth     int
	viewHeight    int
	scale         int
	filter        string
	address       string
	color         string
	cpu           bool
	verbose       bool
}

func parseFlags(args []string) (config, error) {
	var c config
	fs := flag.NewFlagSet("proctex", flag.ContinueOnError)
	fs.IntVar(&c.width, "width", 640, "texture width")
	fs.IntVar(&c.height, "height", 480, "texture height")
	fs.IntVar(&c.frames, "frames", 2, "number of frames to run (init runs on frame 1, update from frame 2)")
	fs.IntVar(&c.workers, "workers", 0, "CPU dispatch workers (0 = GOMAXPROCS)")
	fs.StringVar(&c.out, "out", "texture.png", "output file (.png, .bmp, .tif)")
	fs.StringVar(&c.view, "view", "", "viewport x,y,w,h; renders the texture through the material")
	fs.IntVar(&c.viewWidth, "view-width", 0, "viewport target width (default: texture width)")
	fs.IntVar(&c.viewHeight, "view-height", 0, "viewport target height (default: texture height)")
	fs.IntVar(&c.scale, "scale", 1, "nearest-neighbour upscale factor for the output image")
	fs.StringVar(&c.filter, "filter", "linear", "sampler filter: nearest or linear")
	fs.StringVar(&c.address, "address", "clamp", "sampler address mode: clamp, repeat or mirror")
	fs.StringVar(&c.color, "color", "#ffffff", "material colour as hex (RGB, RGBA, RRGGBB or RRGGBBAA)")
	fs.BoolVar(&c.cpu, "cpu", false, "disable the GPU accelerator")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if c.frames < 1 {
		return c, fmt.Errorf("-frames must be at least 1")
	}
	if c.scale < 1 {
		return c, fmt.Errorf("-scale must be at least 1")
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "proctex:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	c, err := parseFlags(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	proctex.SetLogger(logger)
	defer proctex.SetLogger(nil)

	filter, err := proctex.ParseFilterMode(c.filter)
	if err != nil {
		return err
	}
	address, err := proctex.ParseAddressMode(c.address)
	if err != nil {
		return err
	}
	materialColor, err := proctex.Hex(c.color)
	if err != nil {
		return err
	}
	sampler := proctex.Sampler{MagFilter: filter, MinFilter: filter, AddressModeU: address, AddressModeV: address}

	opts := []proctex.Option{
		proctex.WithWorkers(c.workers),
		proctex.WithSampler(sampler),
		proctex.WithMaterialColor(materialColor),
	}
	if c.cpu {
		opts = append(opts, proctex.WithCPUOnly())
	}
	g, err := proctex.NewGenerator(c.width, c.height, opts...)
	if err != nil {
		return err
	}
	defer g.Close()

	for i := 0; i < c.frames; i++ {
		if err := g.Frame(ctx); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
	}

	result := g.Texture()
	if c.view != "" {
		result, err = renderView(ctx, g, c)
		if err != nil {
			return err
		}
	}

	var img image.Image = result.ToImage()
	if c.scale > 1 {
		img = upscale(img, c.scale)
	}
	if err := writeImage(c.out, img); err != nil {
		return err
	}
	logger.Info("texture written", "path", c.out, "state", g.State(), "frames", g.FrameCount(),
		"accelerator", g.AcceleratorName(), "color", g.Material().Color.String())
	return nil
}

func renderView(ctx context.Context, g *proctex.Generator, c config) (*proctex.StorageTexture, error) {
	vp, err := proctex.ParseViewport(c.view)
	if err != nil {
		return nil, err
	}
	w, h := c.viewWidth, c.viewHeight
	if w == 0 {
		w = c.width
	}
	if h == 0 {
		h = c.height
	}
	dst, err := proctex.NewStorageTexture(w, h)
	if err != nil {
		return nil, err
	}
	if err := g.RenderViewport(ctx, vp, dst); err != nil {
		return nil, fmt.Errorf("render viewport: %w", err)
	}
	return dst, nil
}

func upscale(src image.Image, factor int) image.Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// encoderFor picks an image encoder from the file extension.
func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
}

func writeImage(path string, img image.Image) (err error) {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f, img)
}
