package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
)

// PlayerStats summarizes a headless playback run
type PlayerStats struct {
	Presented uint64
	Dropped   uint64
	Stalls    uint64
	Elapsed   time.Duration
}

// FPS returns the achieved presentation rate
func (s PlayerStats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Presented) / s.Elapsed.Seconds()
}

// PlayerOptions configures a Player
type PlayerOptions struct {
	// MaxFrames stops the run after that many presented frames; zero plays
	// until playback stops (Once mode) or ctx is cancelled
	MaxFrames uint64
	// Speed overrides the clip rate
	Speed domain.Speed
	// Direction defaults to Forward
	Direction playback.Playback
	Clock     playback.Clock
	Logger    *slog.Logger
}

// Player drives a window without a user interface. It stands in for the
// display loop: it drains decode results, ticks the window at the clip
// rate and waits on the decoder when playback stalls.
type Player struct {
	window *Window
	pacer  *playback.Pacer
	clock  playback.Clock
	opts   PlayerOptions
	logger *slog.Logger
}

// NewPlayer creates a player for w
func NewPlayer(w *Window, opts PlayerOptions) *Player {
	if opts.Clock == nil {
		opts.Clock = playback.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = w.logger
	}
	if opts.Direction == playback.Stop {
		opts.Direction = playback.Forward
	}
	speed := opts.Speed
	if !speed.IsValid() {
		speed = w.info.Speed
	}
	return &Player{
		window: w,
		pacer:  playback.NewPacer(opts.Clock, speed.FrameDuration()),
		clock:  opts.Clock,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Run plays until playback stops, MaxFrames frames were presented or ctx
// is cancelled. Cancellation is not an error; a first frame that cannot be
// decoded is.
func (p *Player) Run(ctx context.Context) (PlayerStats, error) {
	w := p.window
	start := p.clock.Now()
	base := w.Stats()

	// Show the first frame before the clock starts
	if err := p.preroll(ctx); err != nil {
		if ctx.Err() != nil {
			return p.finish(base, start), nil
		}
		return p.finish(base, start), err
	}

	w.SetPlayback(p.opts.Direction)
	p.pacer.Reset()
	if err := p.pacer.Wait(ctx); err != nil {
		return p.finish(base, start), nil
	}

	for !p.done(base) && w.Driver().Playback() != playback.Stop {
		w.Drain()

		var skip int64
		if !w.Driver().EveryFrame() {
			skip = p.pacer.Late()
		}
		res := w.TickN(skip)

		if res.Stalled {
			if !p.await(ctx) {
				break
			}
			// restart the schedule; the stall already cost the time
			p.pacer.Reset()
			_ = p.pacer.Wait(ctx)
			continue
		}

		if err := p.pacer.Wait(ctx); err != nil {
			break
		}
	}
	return p.finish(base, start), nil
}

// preroll blocks until the frame at the playhead is on screen
func (p *Player) preroll(ctx context.Context) error {
	w := p.window
	for {
		w.Drain()
		res := w.Tick()
		if res.Presented || w.Current() != nil {
			return nil
		}
		if w.isFailed(res.Frame) {
			return fmt.Errorf("frame %d: %w", res.Frame, domain.ErrDecode)
		}
		if !p.await(ctx) {
			return ctx.Err()
		}
	}
}

// await blocks for one decode result
func (p *Player) await(ctx context.Context) bool {
	select {
	case r, ok := <-p.window.Results():
		if !ok {
			return false
		}
		p.window.HandleResult(r)
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Player) done(base WindowStats) bool {
	return p.opts.MaxFrames > 0 && p.window.Stats().Presented-base.Presented >= p.opts.MaxFrames
}

func (p *Player) finish(base WindowStats, start time.Time) PlayerStats {
	now := p.window.Stats()
	stats := PlayerStats{
		Presented: now.Presented - base.Presented,
		Dropped:   now.Dropped - base.Dropped,
		Stalls:    now.Stalls - base.Stalls,
		Elapsed:   p.clock.Now().Sub(start),
	}
	p.logger.Info("Playback finished",
		"presented", stats.Presented,
		"dropped", stats.Dropped,
		"stalls", stats.Stalls,
		"elapsed", stats.Elapsed)
	return stats
}
