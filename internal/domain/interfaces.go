package domain

import (
	"context"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// Source describes where the frames of a clip live on disk.
// fileseq.FileInfo is the canonical implementation.
type Source interface {
	// FileName returns the path of the file holding frame n. For a single
	// file (movie or still) the frame is ignored.
	FileName(n frame.Number) string

	// Sequence returns the frame numbers available from the source. It is
	// empty for single files.
	Sequence() frame.Sequence
}

// Decoder reads frames from one clip. A decoder is owned by exactly one
// worker and must not be called from two goroutines at once.
type Decoder interface {
	// Open reads the clip metadata. It is called once before any Read.
	Open(ctx context.Context, src Source) (Info, error)

	// Read decodes frame n. The returned image is owned by the caller.
	Read(ctx context.Context, n frame.Number) (*Image, error)

	// Close releases decoder resources
	Close() error
}
