package gifenc

import "testing"

func TestFrameValidateRejectsZeroDimensions(t *testing.T) {
	f := &Frame{Width: 0, Height: 4, Pixels: make([]byte, 0)}
	if err := f.validate(); err != ErrInvalidFrame {
		t.Fatalf("expected ErrInvalidFrame for zero width, got %v", err)
	}
}

func TestFrameValidateRejectsMismatchedBufferLength(t *testing.T) {
	f := &Frame{Width: 2, Height: 2, Pixels: make([]byte, 5)}
	if err := f.validate(); err != ErrInvalidFrame {
		t.Fatalf("expected ErrInvalidFrame for bad buffer length, got %v", err)
	}
}

func TestFrameValidateRejectsOversizedDimensions(t *testing.T) {
	f := &Frame{Width: 70000, Height: 1, Pixels: make([]byte, 70000*3)}
	if err := f.validate(); err != ErrInvalidFrame {
		t.Fatalf("expected ErrInvalidFrame for oversized width, got %v", err)
	}
}

func TestFrameValidateAcceptsWellFormedFrame(t *testing.T) {
	f := &Frame{Width: 3, Height: 2, Pixels: make([]byte, 3*2*3)}
	if err := f.validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestFrameFlippedIntoNoOpWhenNotFlipped(t *testing.T) {
	pixels := []byte{1, 2, 3, 4, 5, 6}
	f := &Frame{Width: 2, Height: 1, Pixels: pixels}
	out := f.flippedInto(nil)
	if &out[0] != &pixels[0] {
		t.Fatal("expected flippedInto to return the original slice when FlippedY is false")
	}
}

func TestFrameFlippedIntoReusesCapacityWhenLargeEnough(t *testing.T) {
	f := &Frame{Width: 1, Height: 2, Pixels: []byte{9, 9, 9, 1, 1, 1}, FlippedY: true}
	scratch := make([]byte, 6, 64)
	out := f.flippedInto(scratch)
	if &out[0] != &scratch[0] {
		t.Fatal("expected flippedInto to reuse dst when it has enough capacity")
	}
	want := []byte{1, 1, 1, 9, 9, 9}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, out[i], want[i])
		}
	}
}

func TestFrameByteLen(t *testing.T) {
	f := &Frame{Width: 4, Height: 5}
	if got := f.byteLen(); got != 60 {
		t.Fatalf("expected byteLen 60, got %d", got)
	}
}
