package gifenc

import "testing"

func gradientPixels(w, h int) []byte {
	pixels := make([]byte, w*h*3)
	k := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels[k] = byte((x * 255) / w)
			pixels[k+1] = byte((y * 255) / h)
			pixels[k+2] = byte(((x + y) * 255) / (w + h))
			k += 3
		}
	}
	return pixels
}

func TestDitherNoneMatchesIndexPixels(t *testing.T) {
	w, h := 16, 16
	pixels := gradientPixels(w, h)
	q := NewQuantizer()
	if err := q.Reset(pixels, 10); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	palette := q.Process()

	want := indexPixels(pixels, q)
	work := make([]byte, len(pixels))
	got := ditherPixels(pixels, work, w, h, palette, q, DitherNone, false)

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestDitherUnknownMethodFallsBackToIndexPixels(t *testing.T) {
	w, h := 8, 8
	pixels := gradientPixels(w, h)
	q := NewQuantizer()
	if err := q.Reset(pixels, 10); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	palette := q.Process()

	want := indexPixels(pixels, q)
	work := make([]byte, len(pixels))
	got := ditherPixels(pixels, work, w, h, palette, q, DitherMethod("not-a-real-kernel"), false)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestDitherKernelsProduceValidIndices(t *testing.T) {
	w, h := 24, 24
	pixels := gradientPixels(w, h)
	q := NewQuantizer()
	if err := q.Reset(pixels, 10); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	palette := q.Process()

	methods := []DitherMethod{DitherFloydSteinberg, DitherFalseFloydSteinberg, DitherStucki, DitherAtkinson}
	for _, method := range methods {
		work := make([]byte, len(pixels))
		got := ditherPixels(pixels, work, w, h, palette, q, method, false)
		if len(got) != w*h {
			t.Fatalf("%s: expected %d indices, got %d", method, w*h, len(got))
		}
		for i, idx := range got {
			if idx < 0 || int(idx) >= 256 {
				t.Fatalf("%s: pixel %d has out-of-range index %d", method, i, idx)
			}
		}
	}
}

func TestDitherSerpentineLeavesOriginalPixelsUntouched(t *testing.T) {
	w, h := 12, 12
	pixels := gradientPixels(w, h)
	original := append([]byte(nil), pixels...)

	q := NewQuantizer()
	if err := q.Reset(pixels, 10); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	palette := q.Process()

	work := make([]byte, len(pixels))
	ditherPixels(pixels, work, w, h, palette, q, DitherFloydSteinberg, true)

	for i := range pixels {
		if pixels[i] != original[i] {
			t.Fatalf("input pixel %d mutated by dithering", i)
		}
	}
}

func TestDiffuseClampsToByteRange(t *testing.T) {
	if got := diffuse(250, 1000, 1.0); got != 255 {
		t.Fatalf("expected clamp to 255, got %d", got)
	}
	if got := diffuse(5, -1000, 1.0); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}
