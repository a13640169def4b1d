// Package worker runs decoders off the control goroutine.
//
// A Worker owns one decoder and decodes the frames it is asked for, one at
// a time, delivering a Result for every request it starts. Requests carry
// a generation id; the requester compares it against its current
// generation and drops stale results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// Request asks for one frame
type Request struct {
	ID    uint64
	Frame frame.Number
}

// Result is the outcome of a Request. Image is nil when Err is set.
type Result struct {
	ID    uint64
	Frame frame.Number
	Image *domain.Image
	Err   error
}

// State of a worker
type State int32

const (
	StateIdle State = iota
	StateDecoding
	StateError
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateDecoding:
		return "decoding"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Policy decides what happens to a request that arrives while the worker
// is busy
type Policy int

const (
	// LatestWins keeps a single pending request. A new request replaces it
	// and cancels the decode in flight.
	LatestWins Policy = iota
	// Queue keeps up to QueueSize pending requests in order, dropping the
	// oldest when full. Used for prefetch.
	Queue
)

const defaultQueueSize = 16

// Worker decodes frames from one decoder on its own goroutine
type Worker struct {
	decoder   domain.Decoder
	results   chan<- Result
	policy    Policy
	queueSize int
	onDrop    func(Request)
	logger    *slog.Logger

	mu             sync.Mutex
	cond           *sync.Cond
	pending        []Request
	cancelInFlight context.CancelFunc
	started        bool
	stopped        bool

	state   atomic.Int32
	dropped atomic.Uint64

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Worker
type Option func(*Worker)

// WithPolicy sets the busy policy
func WithPolicy(p Policy) Option {
	return func(w *Worker) { w.policy = p }
}

// WithQueueSize bounds the Queue policy backlog
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithDropHandler sets a function called with every request discarded
// before it was decoded, by a full queue, a newer LatestWins request or
// Flush. It runs on the goroutine that called Request or Flush, after the
// worker lock is released.
func WithDropHandler(fn func(Request)) Option {
	return func(w *Worker) { w.onDrop = fn }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// New creates a worker that reads through decoder and sends results on
// results. The decoder must already be open. The worker takes ownership of
// the decoder and closes it on Stop.
func New(decoder domain.Decoder, results chan<- Result, opts ...Option) *Worker {
	w := &Worker{
		decoder:   decoder,
		results:   results,
		policy:    LatestWins,
		queueSize: defaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the decode goroutine. It runs until ctx is cancelled or
// Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("worker already started")
	}
	if w.stopped {
		return domain.ErrClosed
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(2)
	go w.loop(ctx)
	go func() {
		defer w.wg.Done()
		<-ctx.Done()
		w.mu.Lock()
		w.stopped = true
		if w.cancelInFlight != nil {
			w.cancelInFlight()
		}
		w.cond.Broadcast()
		w.mu.Unlock()
	}()
	return nil
}

// Request schedules a decode. Requests it pushes out of the backlog are
// passed to the drop handler.
func (w *Worker) Request(req Request) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return domain.ErrClosed
	}

	var evicted []Request
	switch w.policy {
	case Queue:
		if len(w.pending) >= w.queueSize {
			evicted = append(evicted, w.pending[0])
			w.pending = w.pending[1:]
		}
		w.pending = append(w.pending, req)
	default:
		evicted = append(evicted, w.pending...)
		w.pending = append(w.pending[:0], req)
		if w.cancelInFlight != nil {
			w.cancelInFlight()
		}
	}
	w.cond.Signal()
	w.mu.Unlock()

	w.drop(evicted)
	return nil
}

// Flush drops every pending request and cancels the decode in flight. The
// cancelled decode still delivers its result.
func (w *Worker) Flush() {
	w.mu.Lock()
	evicted := slices.Clone(w.pending)
	w.pending = w.pending[:0]
	if w.cancelInFlight != nil {
		w.cancelInFlight()
	}
	w.mu.Unlock()

	w.drop(evicted)
}

func (w *Worker) drop(reqs []Request) {
	if len(reqs) == 0 {
		return
	}
	w.dropped.Add(uint64(len(reqs)))
	if w.onDrop == nil {
		return
	}
	for _, r := range reqs {
		w.onDrop(r)
	}
}

// Pending returns the number of queued requests
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Dropped returns how many requests were discarded before decoding
func (w *Worker) Dropped() uint64 {
	return w.dropped.Load()
}

// State returns the current state. Safe from any goroutine.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Stop cancels outstanding work, waits for the goroutine to exit and closes
// the decoder. It is safe to call more than once.
func (w *Worker) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		cancel := w.cancel
		w.cond.Broadcast()
		w.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		w.wg.Wait()
		err = w.decoder.Close()
	})
	return err
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		req, decodeCtx, ok := w.next(ctx)
		if !ok {
			return
		}

		w.state.Store(int32(StateDecoding))
		img, err := w.decoder.Read(decodeCtx, req.Frame)

		w.mu.Lock()
		if w.cancelInFlight != nil {
			w.cancelInFlight()
			w.cancelInFlight = nil
		}
		w.mu.Unlock()

		res := Result{ID: req.ID, Frame: req.Frame, Image: img, Err: err}
		switch {
		case err == nil:
			w.state.Store(int32(StateIdle))
		case errors.Is(err, context.Canceled):
			w.state.Store(int32(StateIdle))
			res.Image = nil
			w.logger.Debug("Decode cancelled", "frame", req.Frame, "id", req.ID)
		default:
			w.state.Store(int32(StateError))
			res.Image = nil
			w.logger.Warn("Decode failed", "frame", req.Frame, "id", req.ID, "error", err)
		}

		select {
		case w.results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// next blocks until a request is pending or the worker stops
func (w *Worker) next(ctx context.Context) (Request, context.Context, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.pending) == 0 && !w.stopped {
		w.cond.Wait()
	}
	if w.stopped {
		return Request{}, nil, false
	}
	req := w.pending[0]
	w.pending = w.pending[1:]

	decodeCtx, cancel := context.WithCancel(ctx)
	w.cancelInFlight = cancel
	return req, decodeCtx, true
}
