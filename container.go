package gifenc

import "math"

// Repeat selects the Netscape 2.0 looping extension's behavior.
type Repeat int

const (
	// NoRepeat skips the Netscape extension entirely; the GIF plays once.
	NoRepeat Repeat = 0
	// Infinite writes a loop count of 0, meaning "repeat forever."
	Infinite Repeat = -1
)

const (
	gctSize    = 768
	palSize    = 7 // color table size field: 256 entries
	colorDepth = 8
)

// ContainerWriter orchestrates the GIF89a byte layout: header, Logical
// Screen Descriptor, Netscape looping extension, and per-frame Graphic
// Control Extension / Image Descriptor / palette / LZW image data, finished
// by the trailer. It owns a Quantizer and an LzwCoder exclusively; neither
// of those knows about the other or about ContainerWriter.
//
// Structured around an explicit Sink interface, split so the GIF
// byte-layout concerns (here) stay separate from the quantization
// (Quantizer) and compression (LzwCoder) concerns it drives.
type ContainerWriter struct {
	width, height int
	frameRate     float64
	repeat        Repeat
	sample        int
	dither        DitherMethod
	serpentine    bool
	logger        Logger

	quantizer *Quantizer
	lzw       *LzwCoder

	flipScratch   []byte
	ditherScratch []byte

	started    bool
	firstFrame bool
}

// NewContainerWriter creates a ContainerWriter for width x height frames.
// Use the With* options to configure repeat policy, quantizer quality,
// dithering, frame rate, and logging before calling Start.
func NewContainerWriter(width, height int, opts ...ContainerOption) *ContainerWriter {
	cw := &ContainerWriter{
		width:     width,
		height:    height,
		frameRate: 10,
		repeat:    NoRepeat,
		sample:    10,
		logger:    noopLogger{},
		quantizer: NewQuantizer(),
		lzw:       NewLzwCoder(),
	}
	for _, opt := range opts {
		opt(cw)
	}
	return cw
}

// ContainerOption configures a ContainerWriter at construction time.
type ContainerOption func(*ContainerWriter)

// WithRepeat sets the loop policy written via the Netscape extension.
func WithRepeat(r Repeat) ContainerOption { return func(cw *ContainerWriter) { cw.repeat = r } }

// WithFrameRate sets the default frames-per-second used when a Frame omits
// an explicit Delay.
func WithFrameRate(fps float64) ContainerOption {
	return func(cw *ContainerWriter) { cw.frameRate = fps }
}

// WithSample sets the Quantizer's sample factor (1..30, lower is better
// quality and slower).
func WithSample(sample int) ContainerOption {
	return func(cw *ContainerWriter) {
		if sample < 1 {
			sample = 1
		}
		cw.sample = sample
	}
}

// WithDither enables error-diffusion indexing using the named kernel.
func WithDither(method DitherMethod, serpentine bool) ContainerOption {
	return func(cw *ContainerWriter) {
		cw.dither = method
		cw.serpentine = serpentine
	}
}

// WithLogger replaces the default no-op Logger.
func WithLogger(l Logger) ContainerOption {
	return func(cw *ContainerWriter) {
		if l != nil {
			cw.logger = l
		}
	}
}

// Start writes the GIF89a header and Logical Screen Descriptor to sink and
// marks the writer ready to accept frames. Returns ErrAlreadyStarted if
// called twice without an intervening Commit.
func (cw *ContainerWriter) Start(sink Sink) error {
	if cw.started {
		cw.logger.Warn("start called while already started")
		return ErrAlreadyStarted
	}
	sink.WriteASCII("GIF89a")
	cw.writeLSD(sink)
	cw.started = true
	cw.firstFrame = true
	return cw.sinkErr(sink)
}

// Add quantizes frame, writes its palette (global on the first frame, local
// on every subsequent one), its Graphic Control Extension and Image
// Descriptor, and its LZW-compressed image data. Returns ErrNotStarted if
// called before Start, or ErrInvalidFrame if frame's dimensions or buffer
// length don't match the writer's width/height.
func (cw *ContainerWriter) Add(sink Sink, frame *Frame) error {
	if !cw.started {
		cw.logger.Warn("add called before start")
		return ErrNotStarted
	}
	if frame.Width != cw.width || frame.Height != cw.height {
		return ErrInvalidFrame
	}
	if err := frame.validate(); err != nil {
		return err
	}

	pixels := frame.flippedInto(cw.flipScratch)
	if frame.FlippedY {
		cw.flipScratch = pixels
	}

	if err := cw.quantizer.Reset(pixels, cw.sample); err != nil {
		return err
	}
	palette := cw.quantizer.Process()

	var indexed []byte
	if cw.dither == DitherNone {
		indexed = indexPixels(pixels, cw.quantizer)
	} else {
		if cap(cw.ditherScratch) < len(pixels) {
			cw.ditherScratch = make([]byte, len(pixels))
		}
		indexed = ditherPixels(pixels, cw.ditherScratch[:len(pixels)], cw.width, cw.height, palette, cw.quantizer, cw.dither, cw.serpentine)
	}

	transIndex := 0
	transparent := frame.Transparent != nil
	if transparent {
		transIndex = cw.quantizer.Map(frame.Transparent.R, frame.Transparent.G, frame.Transparent.B)
	}

	if cw.firstFrame {
		writePalette(sink, palette)
		if cw.repeat != NoRepeat {
			cw.writeNetscapeExt(sink)
		}
	}

	cw.writeGraphicCtrlExt(sink, frame, transparent, transIndex)
	cw.writeImageDesc(sink)
	if !cw.firstFrame {
		writePalette(sink, palette)
	}

	cw.lzw.Reset(indexed, colorDepth)
	cw.lzw.Encode(sink)

	cw.firstFrame = false
	return cw.sinkErr(sink)
}

// Commit writes the GIF trailer, flushes sink, and returns the writer to
// its pre-Start state so it may be reused on a new sink.
func (cw *ContainerWriter) Commit(sink Sink) error {
	if !cw.started {
		cw.logger.Warn("commit called before start")
		return ErrNotStarted
	}
	sink.WriteU8(0x3b)
	sink.Flush()
	cw.started = false
	cw.firstFrame = true
	return cw.sinkErr(sink)
}

// sinkErr returns ErrSink if sink has failed, and then marks the writer not
// started so Add and Commit are refused until a fresh Start.
func (cw *ContainerWriter) sinkErr(sink Sink) error {
	if err := sink.Err(); err != nil {
		cw.started = false
		return ErrSink
	}
	return nil
}

func (cw *ContainerWriter) writeLSD(sink Sink) {
	sink.WriteU16LE(uint16(cw.width))
	sink.WriteU16LE(uint16(cw.height))
	sink.WriteU8(0x80 | 0x70 | 0x00 | palSize)
	sink.WriteU8(0) // background color index
	sink.WriteU8(0) // pixel aspect ratio
}

func (cw *ContainerWriter) writeNetscapeExt(sink Sink) {
	sink.WriteU8(0x21)
	sink.WriteU8(0xff)
	sink.WriteU8(11)
	sink.WriteASCII("NETSCAPE2.0")
	sink.WriteU8(3)
	sink.WriteU8(1)
	if cw.repeat == Infinite {
		sink.WriteU16LE(0)
	} else {
		sink.WriteU16LE(uint16(cw.repeat))
	}
	sink.WriteU8(0)
}

func (cw *ContainerWriter) writeGraphicCtrlExt(sink Sink, frame *Frame, transparent bool, transIndex int) {
	sink.WriteU8(0x21)
	sink.WriteU8(0xf9)
	sink.WriteU8(4)

	transFlag := 0
	if transparent {
		transFlag = 1
	}
	packed := byte((frame.Disposal&0x7)<<2 | transFlag)
	sink.WriteU8(packed)

	sink.WriteU16LE(uint16(cw.delayHundredths(frame)))
	sink.WriteU8(byte(transIndex))
	sink.WriteU8(0)
}

func (cw *ContainerWriter) delayHundredths(frame *Frame) int {
	delay := frame.Delay
	if delay < 0 {
		delay = 1.0 / cw.frameRate
	}
	return int(math.Floor(delay * 100))
}

func (cw *ContainerWriter) writeImageDesc(sink Sink) {
	sink.WriteU8(0x2c)
	sink.WriteU16LE(0)
	sink.WriteU16LE(0)
	sink.WriteU16LE(uint16(cw.width))
	sink.WriteU16LE(uint16(cw.height))

	if cw.firstFrame {
		sink.WriteU8(0)
	} else {
		sink.WriteU8(0x80 | palSize)
	}
}

func writePalette(sink Sink, palette []byte) {
	sink.WriteBytes(palette)
	pad := gctSize - len(palette)
	for i := 0; i < pad; i++ {
		sink.WriteU8(0)
	}
}
