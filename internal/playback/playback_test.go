package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// play ticks the driver n times and returns the committed indices
func play(d *Driver, n int) []frame.Index {
	var out []frame.Index
	for i := 0; i < n; i++ {
		next, ok := d.Next()
		if !ok {
			break
		}
		d.Commit(next)
		out = append(out, d.Index())
	}
	return out
}

func fiveFrames() frame.Sequence {
	return frame.NewSequence(0, frame.NewRange(100, 104))
}

func TestDriverLoopWraps(t *testing.T) {
	d := NewDriver(fiveFrames())
	d.SetPlayback(Forward)
	assert.Equal(t, []frame.Index{1, 2, 3, 4, 0, 1}, play(d, 6))
	assert.Equal(t, frame.Number(101), d.CurrentFrame())

	d.SetPlayback(Reverse)
	assert.Equal(t, []frame.Index{0, 4, 3}, play(d, 3))
}

func TestDriverOnceStopsAtEnd(t *testing.T) {
	d := NewDriver(fiveFrames())
	d.SetMode(Once)
	d.SetPlayback(Forward)
	assert.Equal(t, []frame.Index{1, 2, 3, 4}, play(d, 10))
	assert.Equal(t, Stop, d.Playback())

	// restarting at the end starts over
	d.SetPlayback(Forward)
	assert.Equal(t, frame.Index(0), d.Index())

	d.End()
	d.SetPlayback(Reverse)
	assert.Equal(t, frame.Index(4), d.Index())
	d.Start()
	d.SetPlayback(Reverse)
	assert.Equal(t, frame.Index(4), d.Index())
	assert.Equal(t, []frame.Index{3, 2, 1, 0}, play(d, 10))
	assert.Equal(t, Stop, d.Playback())
}

func TestDriverPingPongReverses(t *testing.T) {
	d := NewDriver(frame.NewSequence(0, frame.NewRange(1, 3)))
	d.SetMode(PingPong)
	d.SetPlayback(Forward)
	assert.Equal(t, []frame.Index{1, 2, 1, 0, 1, 2, 1}, play(d, 7))
	assert.Equal(t, Reverse, d.Playback())
}

func TestDriverInOutPoints(t *testing.T) {
	d := NewDriver(frame.NewSequence(0, frame.NewRange(0, 9)))
	d.SetInOut(InOutPoints{Enabled: true, In: 6, Out: 3})
	assert.Equal(t, InOutPoints{Enabled: true, In: 3, Out: 6}, d.InOut())
	assert.Equal(t, frame.Index(3), d.Index())

	start, end := d.Range()
	assert.Equal(t, frame.Index(3), start)
	assert.Equal(t, frame.Index(6), end)

	d.SetPlayback(Forward)
	assert.Equal(t, []frame.Index{4, 5, 6, 3}, play(d, 4))

	// an index outside the range wraps back in when playback starts
	d.SetPlayback(Stop)
	d.Seek(8)
	d.SetPlayback(Forward)
	assert.Equal(t, frame.Index(4), d.Index())

	d.SetInOut(InOutPoints{Enabled: true, In: 5, Out: 50})
	_, end = d.Range()
	assert.Equal(t, frame.Index(9), end)
}

func TestDriverAdvanceSkipsFrames(t *testing.T) {
	d := NewDriver(fiveFrames())
	d.SetPlayback(Forward)
	next, ok := d.Advance(3)
	require.True(t, ok)
	assert.Equal(t, frame.Index(3), next)
	d.Commit(next)
	next, _ = d.Advance(3)
	assert.Equal(t, frame.Index(1), next)

	d.SetMode(Once)
	next, _ = d.Advance(30)
	assert.Equal(t, frame.Index(4), next)
}

func TestDriverStepAndSeek(t *testing.T) {
	d := NewDriver(frame.NewSequence(0, frame.NewRange(1, 3), frame.NewRange(10, 11)))
	d.SetPlayback(Forward)
	d.Step(-1)
	assert.Equal(t, Stop, d.Playback())
	assert.Equal(t, frame.Index(4), d.Index())
	assert.Equal(t, frame.Number(11), d.CurrentFrame())

	d.Seek(100)
	assert.Equal(t, frame.Index(4), d.Index())
	d.Seek(-5)
	assert.Equal(t, frame.Index(0), d.Index())

	assert.True(t, d.SeekFrame(10))
	assert.Equal(t, frame.Index(3), d.Index())
	assert.False(t, d.SeekFrame(5))

	_, ok := d.Next()
	assert.False(t, ok)
}

func TestDriverEmptySequence(t *testing.T) {
	d := NewDriver(frame.Sequence{})
	d.SetPlayback(Forward)
	assert.Equal(t, Stop, d.Playback())
	_, ok := d.Next()
	assert.False(t, ok)
	assert.Equal(t, frame.Invalid, d.CurrentFrame())
	start, end := d.Range()
	assert.Equal(t, frame.InvalidIndex, start)
	assert.Equal(t, frame.InvalidIndex, end)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"once": Once, "Loop": Loop, "pingpong": PingPong, "": Loop} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}
	_, err := ParseMode("bounce")
	assert.Error(t, err)
}

// fakeClock advances only when slept on or moved by hand
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestPacerSleepsResidual(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := NewPacer(clock, 40*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	assert.Empty(t, clock.sleeps)

	clock.now = clock.now.Add(10 * time.Millisecond)
	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, []time.Duration{30 * time.Millisecond}, clock.sleeps)
	assert.Zero(t, p.Late())

	// exactly on time: no sleep
	clock.now = clock.now.Add(40 * time.Millisecond)
	require.NoError(t, p.Wait(ctx))
	assert.Len(t, clock.sleeps, 1)
	assert.Zero(t, p.Late())
}

func TestPacerReportsLateFrames(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := NewPacer(clock, 40*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	clock.now = clock.now.Add(125 * time.Millisecond)
	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, int64(2), p.Late())
	assert.Empty(t, clock.sleeps)

	// schedule keeps its phase: next deadline is at 160ms
	clock.now = clock.now.Add(5 * time.Millisecond)
	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, []time.Duration{30 * time.Millisecond}, clock.sleeps)
}

func TestSystemClockSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
