package playback

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can be tested without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer spaces ticks one frame time apart. Deadlines are kept on an
// absolute schedule so short sleeps do not accumulate drift.
type Pacer struct {
	clock     Clock
	frameTime time.Duration
	deadline  time.Time
	late      int64
}

// NewPacer creates a pacer for the given frame time
func NewPacer(clock Clock, frameTime time.Duration) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pacer{clock: clock, frameTime: frameTime}
}

// FrameTime returns the tick interval
func (p *Pacer) FrameTime() time.Duration { return p.frameTime }

// SetFrameTime changes the tick interval and restarts the schedule
func (p *Pacer) SetFrameTime(d time.Duration) {
	p.frameTime = d
	p.Reset()
}

// Reset restarts the schedule from the next Wait
func (p *Pacer) Reset() {
	p.deadline = time.Time{}
	p.late = 0
}

// Wait sleeps until the next tick is due. When the caller is already past
// the deadline it returns at once and Late reports the frames missed.
func (p *Pacer) Wait(ctx context.Context) error {
	now := p.clock.Now()
	if p.deadline.IsZero() || p.frameTime <= 0 {
		p.deadline = now.Add(p.frameTime)
		p.late = 0
		return ctx.Err()
	}

	residual := p.deadline.Sub(now)
	if residual > 0 {
		p.late = 0
		p.deadline = p.deadline.Add(p.frameTime)
		return p.clock.Sleep(ctx, residual)
	}

	p.late = int64(-residual / p.frameTime)
	p.deadline = p.deadline.Add(time.Duration(p.late+1) * p.frameTime)
	return ctx.Err()
}

// Late returns how many whole frames beyond one elapsed before the last
// Wait. A player skips that many frames when dropping.
func (p *Pacer) Late() int64 { return p.late }
