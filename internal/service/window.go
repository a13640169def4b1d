package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/filecache"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/worker"
)

// TickResult describes what one playback tick did
type TickResult struct {
	Index frame.Index
	Frame frame.Number
	// Presented is set when a different image went on screen
	Presented bool
	// Dropped is set when the playhead moved past a frame that was not
	// decoded in time
	Dropped bool
	// Stalled is set when the playhead waits for a frame (every frame mode)
	Stalled bool
}

// WindowStats counts what happened in a window since it was opened
type WindowStats struct {
	Presented uint64
	Dropped   uint64
	Stalls    uint64
	Requests  uint64
	Stale     uint64
	Errors    uint64
}

// Window is one playback session over one clip. It owns the clip's decode
// worker and playback driver and presents frames from the shared cache.
// All methods must be called from the control goroutine.
type Window struct {
	id      filecache.WindowID
	owner   *Context
	file    fileseq.FileInfo
	info    domain.Info
	driver  *playback.Driver
	worker  *worker.Worker
	results chan worker.Result
	gen     worker.Generation
	logger  *slog.Logger

	// frame -> generation of the request in flight
	inFlight map[frame.Number]uint64
	failed   map[frame.Number]struct{}
	waiting  frame.Number

	current *filecache.Handle
	// keeps the frame the playhead waits for alive until it is presented
	pinned *filecache.Handle

	prefetch int
	stats    WindowStats
	closed   bool
}

func newWindow(owner *Context, fi fileseq.FileInfo, info domain.Info, dec domain.Decoder) *Window {
	seq := info.Sequence
	if !seq.IsValid() {
		// stills and movies without frame numbers play as frame 0
		seq = frame.NewSequence(0, frame.SingleRange(0))
	}
	driver := playback.NewDriver(seq)
	driver.SetMode(owner.opts.Mode)
	driver.SetEveryFrame(owner.opts.EveryFrame)

	id := filecache.NewWindowID()
	logger := owner.logger.With("window", id.String())
	prefetch := owner.opts.Prefetch
	results := make(chan worker.Result, prefetch+4)

	w := &Window{
		id:       id,
		owner:    owner,
		file:     fi,
		info:     info,
		driver:   driver,
		results:  results,
		logger:   logger,
		inFlight: make(map[frame.Number]uint64),
		failed:   make(map[frame.Number]struct{}),
		waiting:  frame.Invalid,
		prefetch: prefetch,
	}
	w.worker = worker.New(dec, results,
		worker.WithPolicy(worker.Queue),
		worker.WithQueueSize(prefetch+2),
		worker.WithDropHandler(w.forget),
		worker.WithLogger(logger))
	w.gen.Next()
	return w
}

// ID returns the window identity used in cache keys
func (w *Window) ID() filecache.WindowID { return w.id }

// Info returns the clip metadata
func (w *Window) Info() domain.Info { return w.info }

// File returns the clip file info
func (w *Window) File() fileseq.FileInfo { return w.file }

// Driver returns the playback driver. Use the window methods for seeks and
// play state changes so pending decodes are invalidated.
func (w *Window) Driver() *playback.Driver { return w.driver }

// Results delivers decode results. Pass each one to HandleResult. The
// channel is closed by Close.
func (w *Window) Results() <-chan worker.Result { return w.results }

// Stats returns the window counters
func (w *Window) Stats() WindowStats { return w.stats }

// WorkerState returns the state of the decode worker
func (w *Window) WorkerState() worker.State { return w.worker.State() }

// Current returns the image on screen, or nil
func (w *Window) Current() *domain.Image { return w.current.Image() }

// CurrentFrame returns the frame number on screen, or frame.Invalid
func (w *Window) CurrentFrame() frame.Number {
	if w.current == nil {
		return frame.Invalid
	}
	return w.current.Key().Frame
}

// Frames returns the frame numbers of this window resident in the cache
func (w *Window) Frames() []frame.Number {
	return w.owner.cache.Frames(w.id)
}

// Tick advances playback by one frame
func (w *Window) Tick() TickResult {
	return w.TickN(0)
}

// TickN advances playback by one frame plus skip dropped frames. When
// stopped it presents the frame at the current index.
func (w *Window) TickN(skip int64) TickResult {
	target := w.driver.Index()
	next, playing := w.driver.Advance(1 + skip)
	if playing {
		target = next
	}
	n := w.driver.Sequence().Frame(target)
	res := TickResult{Index: target, Frame: n}
	var dropped uint64

	if hit, changed := w.present(n); hit {
		if playing {
			w.driver.Commit(target)
		}
		res.Presented = changed
		if skip > 0 && playing {
			res.Dropped = true
			dropped = uint64(skip)
		}
	} else {
		_, bad := w.failed[n]
		if !bad {
			w.request(n)
			w.setWaiting(n)
		}
		switch {
		case !playing:
		case bad || !w.driver.EveryFrame():
			// move on, keeping the last image on screen
			w.driver.Commit(target)
			res.Dropped = true
			dropped = uint64(skip) + 1
		default:
			res.Stalled = true
		}
	}

	switch {
	case res.Presented:
		w.stats.Presented++
	case res.Stalled:
		w.stats.Stalls++
	}
	w.stats.Dropped += dropped

	w.prefetchAhead()
	return res
}

// HandleResult stores an accepted decode in the cache. Stale results and
// decode errors are dropped and false is returned.
func (w *Window) HandleResult(r worker.Result) bool {
	if id, ok := w.inFlight[r.Frame]; ok && id == r.ID {
		delete(w.inFlight, r.Frame)
	}
	if w.closed {
		return false
	}
	if !w.gen.Accept(r) {
		w.stats.Stale++
		w.logger.Debug("Dropped stale frame", "frame", r.Frame, "id", r.ID, "current", w.gen.Current())
		return false
	}
	if r.Err != nil || r.Image == nil {
		w.stats.Errors++
		if !errors.Is(r.Err, context.Canceled) {
			w.failed[r.Frame] = struct{}{}
		}
		return false
	}

	cache := w.owner.cache
	key := cache.AddItem(w.id, r.Frame, r.Image)
	if r.Frame == w.waiting {
		if h, ok := cache.Acquire(key); ok {
			w.pinned.Release()
			w.pinned = h
		}
	}
	cache.Purge()
	return true
}

// Drain handles every result already delivered without blocking and
// returns how many were accepted
func (w *Window) Drain() int {
	accepted := 0
	for {
		select {
		case r, ok := <-w.results:
			if !ok {
				return accepted
			}
			if w.HandleResult(r) {
				accepted++
			}
		default:
			return accepted
		}
	}
}

// Seek moves to index i and invalidates pending decodes
func (w *Window) Seek(i frame.Index) {
	w.driver.Seek(i)
	w.resetRequests()
}

// SeekFrame moves to frame number n. It returns false when the frame is
// not part of the clip.
func (w *Window) SeekFrame(n frame.Number) bool {
	if !w.driver.SeekFrame(n) {
		return false
	}
	w.resetRequests()
	return true
}

// Step stops playback and moves delta frames
func (w *Window) Step(delta int64) {
	w.driver.Step(delta)
	w.resetRequests()
}

// SetPlayback changes the play state. A change of direction invalidates
// pending decodes.
func (w *Window) SetPlayback(p playback.Playback) {
	if p != w.driver.Playback() {
		w.resetRequests()
	}
	w.driver.SetPlayback(p)
}

// SetInOut changes the in/out points. Moving the playhead into the new
// range invalidates pending decodes.
func (w *Window) SetInOut(p playback.InOutPoints) {
	before := w.driver.Index()
	w.driver.SetInOut(p)
	if w.driver.Index() != before {
		w.resetRequests()
	}
}

// SetMode changes the loop mode
func (w *Window) SetMode(m playback.Mode) { w.driver.SetMode(m) }

// SetEveryFrame switches between stalling and dropping on a cache miss
func (w *Window) SetEveryFrame(v bool) { w.driver.SetEveryFrame(v) }

// TogglePlayback stops a playing window or plays a stopped one forward
func (w *Window) TogglePlayback() {
	if w.driver.Playback() == playback.Stop {
		w.SetPlayback(playback.Forward)
		return
	}
	w.SetPlayback(playback.Stop)
}

// Close stops the worker, remembers the position and drops the window's
// frames from the cache
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closed = true

	if n := w.driver.CurrentFrame(); n != frame.Invalid && w.file.IsSequence() {
		if err := w.owner.store.SavePosition(w.file.Path(), n); err != nil {
			w.logger.Warn("failed to save position", "error", err)
		}
	}
	if err := w.worker.Stop(); err != nil {
		w.logger.Warn("failed to close decoder", "error", err)
	}
	// the worker has exited so nothing sends any more
	close(w.results)
	w.current.Release()
	w.current = nil
	w.pinned.Release()
	w.pinned = nil
	w.owner.cache.ClearItems(w.id)
	w.owner.removeWindow(w.id)
	w.logger.Info("Closed clip", "path", w.file.Path(), "presented", w.stats.Presented, "dropped", w.stats.Dropped)
}

// present puts frame n on screen if it is cached. changed reports whether
// the image differs from the one already shown.
func (w *Window) present(n frame.Number) (hit, changed bool) {
	cache := w.owner.cache
	key, ok := cache.Find(w.id, n)
	if !ok {
		return false, false
	}
	if w.current != nil && w.current.Key() == key {
		return true, false
	}
	h, ok := cache.Acquire(key)
	if !ok {
		return false, false
	}
	w.current.Release()
	w.current = h
	if n == w.waiting {
		w.setWaiting(frame.Invalid)
	}
	return true, true
}

// request asks the worker for frame n unless it is already in flight
func (w *Window) request(n frame.Number) bool {
	gen := w.gen.Current()
	if id, ok := w.inFlight[n]; ok && id == gen {
		return false
	}
	if err := w.worker.Request(worker.Request{ID: gen, Frame: n}); err != nil {
		w.logger.Debug("Request refused", "frame", n, "error", err)
		return false
	}
	w.inFlight[n] = gen
	w.stats.Requests++
	return true
}

// forget clears the in-flight mark of a request the worker discarded
// without decoding, so the frame can be requested again
func (w *Window) forget(r worker.Request) {
	if id, ok := w.inFlight[r.Frame]; ok && id == r.ID {
		delete(w.inFlight, r.Frame)
	}
}

// prefetchAhead requests upcoming frames in the play direction while the
// cache budget has room for them
func (w *Window) prefetchAhead() {
	if w.driver.Playback() == playback.Stop || w.prefetch == 0 {
		return
	}
	cache := w.owner.cache
	frameBytes := w.info.Pixel.ByteCount()
	for k := int64(1); k <= int64(w.prefetch); k++ {
		i, ok := w.driver.Advance(k)
		if !ok {
			return
		}
		n := w.driver.Sequence().Frame(i)
		if n == w.driver.CurrentFrame() {
			// wrapped all the way round
			return
		}
		if _, ok := cache.Find(w.id, n); ok {
			continue
		}
		if _, bad := w.failed[n]; bad {
			continue
		}
		pending := uint64(len(w.inFlight)+1) * frameBytes
		if cache.CurrentSize()+pending > cache.MaxSize() {
			return
		}
		w.request(n)
	}
}

// resetRequests starts a new generation: queued decodes are dropped and
// results still in flight will be rejected
func (w *Window) resetRequests() {
	w.gen.Next()
	w.worker.Flush()
	clear(w.inFlight)
	w.setWaiting(frame.Invalid)
}

func (w *Window) setWaiting(n frame.Number) {
	if n == w.waiting {
		return
	}
	w.waiting = n
	w.pinned.Release()
	w.pinned = nil
}

func (w *Window) isFailed(n frame.Number) bool {
	_, bad := w.failed[n]
	return bad
}
