package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// DecoderFactory creates decoders by file name. codec.Registry implements
// it.
type DecoderFactory interface {
	Decoder(fileName string) (domain.Decoder, error)
}

// Load opens src synchronously. Unlike frame decodes during playback, any
// failure here is returned to the caller, wrapped with domain.ErrOpen. On
// success the caller owns the returned decoder.
func Load(ctx context.Context, factory DecoderFactory, src domain.Source) (domain.Decoder, domain.Info, error) {
	first := frame.Invalid
	if seq := src.Sequence(); seq.IsValid() {
		first = seq.First()
	}
	name := src.FileName(first)

	dec, err := factory.Decoder(name)
	if err != nil {
		return nil, domain.Info{}, fmt.Errorf("%w: %w", domain.ErrOpen, err)
	}
	info, err := dec.Open(ctx, src)
	if err != nil {
		_ = dec.Close()
		return nil, domain.Info{}, fmt.Errorf("%w: %w", domain.ErrOpen, err)
	}
	return dec, info, nil
}

// InfoResult reports the probe of one file
type InfoResult struct {
	Path string
	Info domain.Info
	Err  error
}

// InfoWorker probes the metadata of many files concurrently
type InfoWorker struct {
	factory DecoderFactory
	limit   int
	logger  *slog.Logger
}

// NewInfoWorker creates a prober running at most limit opens at once
func NewInfoWorker(factory DecoderFactory, limit int, logger *slog.Logger) *InfoWorker {
	if limit <= 0 {
		limit = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InfoWorker{factory: factory, limit: limit, logger: logger}
}

// Probe opens every file and calls report once per file. Calls to report
// are serialized. Per-file failures are reported, not returned; Probe only
// fails when ctx is cancelled.
func (w *InfoWorker) Probe(ctx context.Context, files []fileseq.FileInfo, report func(InfoResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)

	var mu sync.Mutex
	for _, fi := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := InfoResult{Path: fi.Path()}
			dec, info, err := Load(gctx, w.factory, fi)
			if err != nil {
				w.logger.Debug("Probe failed", "path", res.Path, "error", err)
				res.Err = err
			} else {
				res.Info = info
				_ = dec.Close()
			}

			mu.Lock()
			report(res)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}
