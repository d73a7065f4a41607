package gifenc

import "errors"

// Sentinel error kinds. The package returns these values unwrapped; callers
// compare with errors.Is or ==.
var (
	// ErrNotStarted is returned by Add or Commit when called before Start.
	ErrNotStarted = errors.New("gifenc: container not started")

	// ErrAlreadyStarted is returned by Start when called twice without an
	// intervening Commit.
	ErrAlreadyStarted = errors.New("gifenc: container already started")

	// ErrInvalidFrame is returned when a frame's byte length does not match
	// width*height*3, or its dimensions are out of range.
	ErrInvalidFrame = errors.New("gifenc: invalid frame")

	// ErrSink is returned when the underlying Sink reports an I/O failure.
	// The encoder accepts no further writes until a fresh Start.
	ErrSink = errors.New("gifenc: sink write failed")
)
