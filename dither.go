package gifenc

// DitherMethod selects an error-diffusion kernel for indexing pixels against
// the quantized palette. The zero value, DitherNone, performs plain
// nearest-color lookup with no error diffusion. Operates against the
// Quantizer/palette split rather than reaching into ContainerWriter's
// fields directly, so it stays a narrow, optional collaborator.
type DitherMethod string

const (
	DitherNone                DitherMethod = ""
	DitherFloydSteinberg      DitherMethod = "FloydSteinberg"
	DitherFalseFloydSteinberg DitherMethod = "FalseFloydSteinberg"
	DitherStucki              DitherMethod = "Stucki"
	DitherAtkinson            DitherMethod = "Atkinson"
)

// ditherTap is one weighted neighbor offset in a diffusion kernel.
type ditherTap struct {
	weight float64
	dx, dy int
}

// kernel is an ordered list of taps; order matters for serpentine scanning,
// which walks the kernel in reverse when scanning right-to-left.
type kernel []ditherTap

var ditherKernels = map[DitherMethod]kernel{
	DitherFalseFloydSteinberg: {
		{3.0 / 8.0, 1, 0},
		{3.0 / 8.0, 0, 1},
		{2.0 / 8.0, 1, 1},
	},
	DitherFloydSteinberg: {
		{7.0 / 16.0, 1, 0},
		{3.0 / 16.0, -1, 1},
		{5.0 / 16.0, 0, 1},
		{1.0 / 16.0, 1, 1},
	},
	DitherStucki: {
		{8.0 / 42.0, 1, 0},
		{4.0 / 42.0, 2, 0},
		{2.0 / 42.0, -2, 1},
		{4.0 / 42.0, -1, 1},
		{8.0 / 42.0, 0, 1},
		{4.0 / 42.0, 1, 1},
		{2.0 / 42.0, 2, 1},
		{1.0 / 42.0, -2, 2},
		{2.0 / 42.0, -1, 2},
		{4.0 / 42.0, 0, 2},
		{2.0 / 42.0, 1, 2},
		{1.0 / 42.0, 2, 2},
	},
	DitherAtkinson: {
		{1.0 / 8.0, 1, 0},
		{1.0 / 8.0, 2, 0},
		{1.0 / 8.0, -1, 1},
		{1.0 / 8.0, 0, 1},
		{1.0 / 8.0, 1, 1},
		{1.0 / 8.0, 0, 2},
	},
}

// indexPixels maps pixels (RGB24, w*h*3 bytes) through q.Map with no error
// diffusion. This is the default indexing behavior when no dither method
// is configured.
func indexPixels(pixels []byte, q *Quantizer) []byte {
	nPix := len(pixels) / 3
	out := make([]byte, nPix)
	k := 0
	for j := 0; j < nPix; j++ {
		out[j] = byte(q.Map(pixels[k], pixels[k+1], pixels[k+2]))
		k += 3
	}
	return out
}

// ditherPixels indexes pixels against the quantized palette using an
// error-diffusion kernel, optionally serpentine-scanning rows. work must be
// sized len(pixels); it receives a mutable copy so the caller's original
// frame buffer is never modified. Unknown methods fall back to indexPixels.
func ditherPixels(pixels, work []byte, w, h int, palette []byte, q *Quantizer, method DitherMethod, serpentine bool) []byte {
	k, ok := ditherKernels[method]
	if !ok {
		return indexPixels(pixels, q)
	}

	copy(work, pixels)
	out := make([]byte, w*h)
	direction := 1

	for y := 0; y < h; y++ {
		if serpentine {
			direction = -direction
		}

		var x, xEnd int
		if direction == 1 {
			x, xEnd = 0, w
		} else {
			x, xEnd = w-1, -1
		}

		for x != xEnd {
			idx := (y*w + x) * 3
			r1, g1, b1 := int(work[idx]), int(work[idx+1]), int(work[idx+2])

			colorIdx := q.Map(clampByte(r1), clampByte(g1), clampByte(b1))
			out[y*w+x] = byte(colorIdx)

			palIdx := colorIdx * 3
			r2, g2, b2 := int(palette[palIdx]), int(palette[palIdx+1]), int(palette[palIdx+2])
			er, eg, eb := r1-r2, g1-g2, b1-b2

			var ti, tiEnd, step int
			if direction == 1 {
				ti, tiEnd, step = 0, len(k), 1
			} else {
				ti, tiEnd, step = len(k)-1, -1, -1
			}

			for ti != tiEnd {
				tap := k[ti]
				nx, ny := x+tap.dx*direction, y+tap.dy
				if nx >= 0 && nx < w && ny >= 0 && ny < h {
					nIdx := (ny*w + nx) * 3
					work[nIdx] = diffuse(work[nIdx], er, tap.weight)
					work[nIdx+1] = diffuse(work[nIdx+1], eg, tap.weight)
					work[nIdx+2] = diffuse(work[nIdx+2], eb, tap.weight)
				}
				ti += step
			}

			x += direction
		}
	}
	return out
}

func diffuse(base byte, errv int, weight float64) byte {
	return clampByte(int(base) + int(float64(errv)*weight))
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
