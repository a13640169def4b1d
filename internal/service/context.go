// Package service wires the frame cache, codecs, decode workers and the
// metadata store into playback sessions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/darbyjohnston/DJV-sub020/internal/codec"
	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/filecache"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/store"
	"github.com/darbyjohnston/DJV-sub020/internal/worker"
)

const defaultProbeLimit = 4

// infoStore is the subset of store.InfoStore the service needs
// (consumer-defined interface)
type infoStore interface {
	GetInfo(path string) (domain.Info, bool)
	SaveInfo(path string, info domain.Info, modTime int64) error
	IsValid(path string, modTime int64) bool
	GetPosition(path string) (frame.Number, bool)
	SavePosition(path string, n frame.Number) error
	AddRecent(path string) error
	Recent() []string
	Close() error
}

var _ infoStore = (*store.InfoStore)(nil)

// Options configures a Context
type Options struct {
	// CacheBytes is the frame cache budget shared by every window
	CacheBytes uint64
	// Prefetch is the number of frames requested ahead of the playhead
	Prefetch int
	// Mode and EveryFrame are applied to new windows
	Mode       playback.Mode
	EveryFrame bool
	// Fs is the filesystem clips are read from; nil reads the OS
	Fs afero.Fs
	// Store persists clip info and positions; nil keeps them in memory
	Store infoStore
	// Codecs overrides the default registry
	Codecs *codec.Registry
	// Now stamps cache keys; nil uses time.Now
	Now    func() time.Time
	Logger *slog.Logger
}

// Context owns the process wide state: one frame cache, the codec
// registry, the metadata store and the open windows. It replaces global
// singletons and is driven from a single control goroutine.
type Context struct {
	cache   *filecache.Cache
	codecs  *codec.Registry
	lister  *fileseq.Lister
	fs      afero.Fs
	store   infoStore
	logger  *slog.Logger
	opts    Options
	windows map[filecache.WindowID]*Window

	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a context
func NewContext(opts Options) (*Context, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Codecs == nil {
		opts.Codecs = codec.NewRegistry(opts.Fs)
	}
	if opts.Store == nil {
		s, err := store.NewInfoStore("")
		if err != nil {
			return nil, err
		}
		opts.Store = s
	}
	if opts.Prefetch < 0 {
		opts.Prefetch = 0
	}

	cacheOpts := []filecache.Option{filecache.WithLogger(opts.Logger)}
	if opts.Now != nil {
		cacheOpts = append(cacheOpts, filecache.WithClock(opts.Now))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Context{
		cache:   filecache.New(opts.CacheBytes, cacheOpts...),
		codecs:  opts.Codecs,
		lister:  fileseq.NewLister(opts.Fs),
		fs:      opts.Fs,
		store:   opts.Store,
		logger:  opts.Logger,
		opts:    opts,
		windows: make(map[filecache.WindowID]*Window),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Cache returns the shared frame cache
func (c *Context) Cache() *filecache.Cache { return c.cache }

// Codecs returns the codec registry
func (c *Context) Codecs() *codec.Registry { return c.codecs }

// Recent returns recently opened clips, newest first
func (c *Context) Recent() []string { return c.store.Recent() }

// SetCacheSize changes the shared budget. Zero disables caching beyond the
// frames currently on screen.
func (c *Context) SetCacheSize(bytes uint64) {
	c.logger.Info("Frame cache size changed", "bytes", bytes)
	c.cache.SetMaxSize(bytes)
}

// Windows returns the number of open windows
func (c *Context) Windows() int { return len(c.windows) }

// OpenWindow opens the clip at path and starts its decode worker. A
// numbered file is expanded to its sequence. Open failures are returned
// wrapped with domain.ErrOpen and nothing is cached.
func (c *Context) OpenWindow(ctx context.Context, path string) (*Window, error) {
	fi, err := c.lister.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOpen, err)
	}

	dec, info, err := worker.Load(ctx, c.codecs, fi)
	if err != nil {
		c.logger.Error("failed to open clip", "path", fi.Path(), "error", err)
		return nil, err
	}

	key := fi.Path()
	if err := c.store.SaveInfo(key, info, c.modTime(fi)); err != nil {
		c.logger.Warn("failed to save clip info", "path", key, "error", err)
	}
	if err := c.store.AddRecent(key); err != nil {
		c.logger.Warn("failed to save recent files", "path", key, "error", err)
	}

	w := newWindow(c, fi, info, dec)
	if n, ok := c.store.GetPosition(key); ok {
		w.driver.SeekFrame(n)
	}
	if err := w.worker.Start(c.ctx); err != nil {
		_ = w.worker.Stop()
		return nil, err
	}
	c.windows[w.id] = w

	c.logger.Info("Opened clip",
		"path", key,
		"window", w.id.String(),
		"frames", info.FrameCount(),
		"pixel", info.Pixel.String())
	return w, nil
}

// Info returns the metadata of a clip, from the store when it is still
// fresh and by opening the file otherwise
func (c *Context) Info(ctx context.Context, path string) (domain.Info, error) {
	fi, err := c.lister.Expand(path)
	if err != nil {
		return domain.Info{}, fmt.Errorf("%w: %w", domain.ErrOpen, err)
	}
	key := fi.Path()
	mod := c.modTime(fi)
	if c.store.IsValid(key, mod) {
		if info, ok := c.store.GetInfo(key); ok {
			return info, nil
		}
	}

	dec, info, err := worker.Load(ctx, c.codecs, fi)
	if err != nil {
		return domain.Info{}, err
	}
	_ = dec.Close()
	if err := c.store.SaveInfo(key, info, mod); err != nil {
		c.logger.Warn("failed to save clip info", "path", key, "error", err)
	}
	return info, nil
}

// Browse lists the clips in dir that a registered codec can read, with
// numbered files grouped into sequences
func (c *Context) Browse(dir string) ([]fileseq.FileInfo, error) {
	return c.lister.List(dir, fileseq.ListOptions{
		Sequences:  true,
		Extensions: c.codecs.Extensions(),
	})
}

// Probe reads the metadata of many clips concurrently
func (c *Context) Probe(ctx context.Context, files []fileseq.FileInfo, report func(worker.InfoResult)) error {
	return worker.NewInfoWorker(c.codecs, defaultProbeLimit, c.logger).Probe(ctx, files, report)
}

// Close closes every window and the store
func (c *Context) Close() error {
	for _, w := range c.windows {
		w.Close()
	}
	c.cancel()
	return c.store.Close()
}

func (c *Context) modTime(fi fileseq.FileInfo) int64 {
	first := frame.Invalid
	if seq := fi.Sequence(); seq.IsValid() {
		first = seq.First()
	}
	st, err := c.fs.Stat(fi.FileName(first))
	if err != nil {
		return 0
	}
	return st.ModTime().UnixNano()
}

func (c *Context) removeWindow(id filecache.WindowID) {
	delete(c.windows, id)
}
