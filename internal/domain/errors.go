package domain

import "errors"

// Sentinel errors for image I/O and playback operations
var (
	// ErrOpen indicates a file or sequence could not be opened
	ErrOpen = errors.New("cannot open file")

	// ErrUnsupportedFormat indicates no decoder is registered for the file
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDecode indicates a single frame failed to decode
	ErrDecode = errors.New("cannot decode frame")

	// ErrNoSequence indicates an operation needs at least one frame
	ErrNoSequence = errors.New("sequence has no frames")

	// ErrClosed indicates the decoder or worker was already closed
	ErrClosed = errors.New("closed")
)
