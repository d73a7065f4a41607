// Command gifenc turns a JSON manifest naming a sequence of frame images
// into an animated GIF.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nicoquant/gifenc"
	"github.com/tidwall/gjson"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to a JSON manifest describing frames")
	outPath := flag.String("out", "out.gif", "output GIF path")
	quality := flag.Int("quality", 0, "quantizer sample factor, 1..30 (0 = use manifest/default)")
	repeat := flag.Int("repeat", -2, "loop count: -1 = forever, 0 = no repeat, >0 = N extra loops (-2 = use manifest/default)")
	fps := flag.Float64("fps", 0, "default frame rate in frames per second (0 = use manifest/default)")
	flag.Parse()

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "gifenc: -manifest is required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *manifestPath, *outPath, *quality, *repeat, *fps); err != nil {
		fmt.Fprintf(os.Stderr, "gifenc: %v\n", err)
		os.Exit(1)
	}
}

// manifestFrame is one entry in a manifest's "frames" array.
type manifestFrame struct {
	path  string
	delay float64 // seconds; negative means "unset"
}

func run(ctx context.Context, manifestPath, outPath string, quality, repeat int, fps float64) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("manifest %s is not valid JSON", manifestPath)
	}

	var opts []gifenc.Option
	if quality > 0 {
		opts = append(opts, gifenc.WithQuality(quality))
	}
	if repeat != -2 {
		opts = append(opts, gifenc.WithRepeatOpt(gifenc.Repeat(repeat)))
	}
	if fps > 0 {
		opts = append(opts, gifenc.WithFPS(fps))
	}
	cfg := gifenc.LoadOptions(manifestPath, opts...)

	frames, err := parseManifestFrames(data, filepath.Dir(manifestPath))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("manifest %s names no frames", manifestPath)
	}

	images := make([]image.Image, len(frames))
	delays := make([]float64, len(frames))
	for i, f := range frames {
		img, err := decodeImage(f.path)
		if err != nil {
			return fmt.Errorf("decoding frame %d (%s): %w", i, f.path, err)
		}
		images[i] = img
		delays[i] = f.delay
	}
	cfg.Delays = delays

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	return encodeTo(ctx, out, images, cfg)
}

// encodeTo drives the container writer frame by frame instead of calling
// gifenc.EncodeWithOptions directly, so ctx can be checked once per frame,
// the one point in the pipeline where a caller can cancel between frames.
func encodeTo(ctx context.Context, w *os.File, images []image.Image, cfg gifenc.EncodeOptions) error {
	sink := gifenc.NewWriterSink(w)

	width, height := cfg.Width, cfg.Height
	if width == 0 || height == 0 {
		bounds := images[0].Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}

	cwOpts := []gifenc.ContainerOption{
		gifenc.WithRepeat(cfg.Repeat),
		gifenc.WithSample(cfg.Quality),
		gifenc.WithFrameRate(cfg.FrameRate),
		gifenc.WithDither(cfg.Dither, cfg.Serpentine),
	}
	cw := gifenc.NewContainerWriter(width, height, cwOpts...)

	if err := cw.Start(sink); err != nil {
		return err
	}

	for i, img := range images {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame := frameFromImage(img, width, height)
		if i < len(cfg.Delays) {
			frame.Delay = cfg.Delays[i]
		} else {
			frame.Delay = -1
		}
		if err := cw.Add(sink, frame); err != nil {
			return err
		}
	}

	return cw.Commit(sink)
}

func frameFromImage(img image.Image, width, height int) *gifenc.Frame {
	pixels := make([]byte, width*height*3)
	bounds := img.Bounds()
	count := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pixels[count] = byte(r >> 8)
			pixels[count+1] = byte(g >> 8)
			pixels[count+2] = byte(b >> 8)
			count += 3
		}
	}
	return &gifenc.Frame{Width: width, Height: height, Pixels: pixels}
}

func parseManifestFrames(data []byte, baseDir string) ([]manifestFrame, error) {
	var frames []manifestFrame
	var parseErr error

	gjson.GetBytes(data, "frames").ForEach(func(_, value gjson.Result) bool {
		path := value.Get("path").String()
		if path == "" {
			parseErr = fmt.Errorf("frame entry missing \"path\"")
			return false
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		delay := -1.0
		if d := value.Get("delay"); d.Exists() {
			delay = d.Float()
		}
		frames = append(frames, manifestFrame{path: path, delay: delay})
		return true
	})

	return frames, parseErr
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
