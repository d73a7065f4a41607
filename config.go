package gifenc

import (
	"image"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

// EncodeOptions controls a whole-stream encode via Encode/EncodeWithOptions.
// EncodeWithOptions takes a zero Width or Height from the first image's
// bounds and applies every other field to the ContainerWriter as given.
// DefaultEncodeOptions holds the compiled-in defaults; LoadOptions adds two
// more layers on top of them: an optional JSON manifest and the environment.
type EncodeOptions struct {
	Width, Height int
	Repeat        Repeat
	Quality       int // Quantizer sample factor, 1..30, lower is better
	Dither        DitherMethod
	Serpentine    bool
	FrameRate     float64
	Delays        []float64 // per-frame delay override, seconds
	Logger        Logger
}

// DefaultEncodeOptions returns the compiled-in defaults, the first and
// weakest layer of the config loader.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Repeat:    Infinite,
		Quality:   10,
		FrameRate: 10,
	}
}

// Option mutates an EncodeOptions in place; used both as a functional-option
// argument to LoadOptions and directly by callers that don't need the
// manifest/environment layers.
type Option func(*EncodeOptions)

func WithQuality(q int) Option      { return func(o *EncodeOptions) { o.Quality = q } }
func WithRepeatOpt(r Repeat) Option { return func(o *EncodeOptions) { o.Repeat = r } }
func WithFPS(fps float64) Option    { return func(o *EncodeOptions) { o.FrameRate = fps } }
func WithDitherOpt(m DitherMethod, serpentine bool) Option {
	return func(o *EncodeOptions) { o.Dither = m; o.Serpentine = serpentine }
}
func WithLoggerOpt(l Logger) Option { return func(o *EncodeOptions) { o.Logger = l } }

// LoadOptions assembles an EncodeOptions by layering, in increasing
// precedence: compiled-in defaults, an optional JSON manifest file,
// GIFENC_* environment variables, and the supplied functional options. An
// empty manifestPath skips that layer. A manifest that doesn't parse as
// JSON is treated as "no manifest layer" rather than an error, since the
// manifest is optional configuration, not a required input.
func LoadOptions(manifestPath string, opts ...Option) EncodeOptions {
	o := DefaultEncodeOptions()

	if manifestPath != "" {
		if data, err := os.ReadFile(manifestPath); err == nil && gjson.ValidBytes(data) {
			applyManifest(&o, data)
		}
	}

	applyEnv(&o)

	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// applyManifest pulls the config fields out of a JSON document with gjson
// rather than a full struct-tagged json.Unmarshal, since the manifest may
// legitimately contain other, CLI-specific fields (e.g. a "frames" array)
// that this layer doesn't need to know about.
func applyManifest(o *EncodeOptions, data []byte) {
	if v := gjson.GetBytes(data, "quality"); v.Exists() {
		o.Quality = int(v.Int())
	}
	if v := gjson.GetBytes(data, "repeat"); v.Exists() {
		o.Repeat = Repeat(v.Int())
	}
	if v := gjson.GetBytes(data, "fps"); v.Exists() {
		o.FrameRate = v.Float()
	}
	if v := gjson.GetBytes(data, "dither"); v.Exists() {
		o.Dither = DitherMethod(v.String())
	}
	if v := gjson.GetBytes(data, "serpentine"); v.Exists() {
		o.Serpentine = v.Bool()
	}
}

func applyEnv(o *EncodeOptions) {
	if v := os.Getenv("GIFENC_QUALITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.Quality = n
		}
	}
	if v := os.Getenv("GIFENC_REPEAT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.Repeat = Repeat(n)
		}
	}
	if v := os.Getenv("GIFENC_FPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			o.FrameRate = f
		}
	}
	if v := os.Getenv("GIFENC_DITHER"); v != "" {
		o.Dither = DitherMethod(v)
	}
}

// Encode is a convenience function that quantizes and LZW-encodes images
// into a complete GIF89a byte stream using default options, one loop
// forever.
func Encode(images []image.Image, delays []float64) ([]byte, error) {
	opts := DefaultEncodeOptions()
	opts.Delays = delays
	return EncodeWithOptions(images, opts)
}

// EncodeWithOptions encodes images into a complete GIF89a byte stream under
// the given options.
func EncodeWithOptions(images []image.Image, opts EncodeOptions) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrInvalidFrame
	}

	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		bounds := images[0].Bounds()
		width, height = bounds.Dx(), bounds.Dy()
	}

	containerOpts := []ContainerOption{
		WithRepeat(opts.Repeat),
		WithSample(opts.Quality),
		WithFrameRate(opts.FrameRate),
		WithDither(opts.Dither, opts.Serpentine),
	}
	if opts.Logger != nil {
		containerOpts = append(containerOpts, WithLogger(opts.Logger))
	}

	cw := NewContainerWriter(width, height, containerOpts...)
	sink := NewMemorySink()

	if err := cw.Start(sink); err != nil {
		return nil, err
	}

	for i, img := range images {
		frame := frameFromImage(img, width, height)
		if i < len(opts.Delays) {
			frame.Delay = opts.Delays[i]
		} else {
			frame.Delay = -1
		}
		if err := cw.Add(sink, frame); err != nil {
			return nil, err
		}
	}

	if err := cw.Commit(sink); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

// frameFromImage extracts an RGB24 buffer from img, dropping any alpha
// channel.
func frameFromImage(img image.Image, width, height int) *Frame {
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
	return &Frame{Width: width, Height: height, Pixels: pixels}
}
