// Package playback advances a frame position through a sequence in real
// time.
package playback

import (
	"fmt"
	"strings"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// Playback is the play state
type Playback int

const (
	Stop Playback = iota
	Forward
	Reverse
)

// String returns the state name
func (p Playback) String() string {
	switch p {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "stop"
	}
}

// Mode decides what happens at the ends of the playback range
type Mode int

const (
	// Once stops at the end
	Once Mode = iota
	// Loop wraps to the opposite end
	Loop
	// PingPong reverses direction
	PingPong
)

// String returns the mode name as used in the configuration
func (m Mode) String() string {
	switch m {
	case Once:
		return "once"
	case PingPong:
		return "pingpong"
	default:
		return "loop"
	}
}

// ParseMode reads a mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "once":
		return Once, nil
	case "loop", "repeat", "":
		return Loop, nil
	case "pingpong", "ping-pong", "ping_pong":
		return PingPong, nil
	default:
		return Loop, fmt.Errorf("unknown playback mode %q", s)
	}
}

// InOutPoints restrict playback to a sub range of indices
type InOutPoints struct {
	Enabled bool
	In      frame.Index
	Out     frame.Index
}

// Driver tracks the current index of one view. Indices address the frames
// of the sequence in order; use CurrentFrame for the frame number.
type Driver struct {
	seq        frame.Sequence
	index      frame.Index
	playback   Playback
	mode       Mode
	inOut      InOutPoints
	everyFrame bool
}

// NewDriver creates a stopped driver positioned on the first frame
func NewDriver(seq frame.Sequence) *Driver {
	d := &Driver{seq: seq, mode: Loop, index: frame.InvalidIndex}
	if seq.IsValid() {
		d.index = 0
	}
	return d
}

// Sequence returns the sequence being played
func (d *Driver) Sequence() frame.Sequence { return d.seq }

// Index returns the current index
func (d *Driver) Index() frame.Index { return d.index }

// CurrentFrame returns the frame number at the current index
func (d *Driver) CurrentFrame() frame.Number { return d.seq.Frame(d.index) }

// Playback returns the play state
func (d *Driver) Playback() Playback { return d.playback }

// Mode returns the loop mode
func (d *Driver) Mode() Mode { return d.mode }

// SetMode changes the loop mode
func (d *Driver) SetMode(m Mode) { d.mode = m }

// EveryFrame reports whether playback waits for every frame
func (d *Driver) EveryFrame() bool { return d.everyFrame }

// SetEveryFrame chooses between stalling on a missing frame (true) and
// dropping it (false)
func (d *Driver) SetEveryFrame(v bool) { d.everyFrame = v }

// InOut returns the in/out points
func (d *Driver) InOut() InOutPoints { return d.inOut }

// SetInOut changes the in/out points and moves the current index inside
// the new range
func (d *Driver) SetInOut(p InOutPoints) {
	if p.In > p.Out {
		p.In, p.Out = p.Out, p.In
	}
	d.inOut = p
	if d.index == frame.InvalidIndex {
		return
	}
	start, end := d.Range()
	d.index = clamp(d.index, start, end)
}

// Range returns the first and last playable indices, honouring enabled
// in/out points. An empty sequence returns InvalidIndex twice.
func (d *Driver) Range() (start, end frame.Index) {
	last := d.seq.LastIndex()
	if last == frame.InvalidIndex {
		return frame.InvalidIndex, frame.InvalidIndex
	}
	start, end = 0, last
	if d.inOut.Enabled {
		start = clamp(d.inOut.In, 0, last)
		end = clamp(d.inOut.Out, start, last)
	}
	return start, end
}

// SetPlayback changes the play state. Starting playback repositions the
// index: Once restarts from the opposite end when sitting on the end it
// would stop at, Loop wraps an index outside the range and PingPong clamps
// it.
func (d *Driver) SetPlayback(p Playback) {
	if d.index == frame.InvalidIndex {
		d.playback = Stop
		return
	}
	d.playback = p
	if p == Stop {
		return
	}

	start, end := d.Range()
	switch d.mode {
	case Once:
		d.index = clamp(d.index, start, end)
		if p == Forward && d.index == end {
			d.index = start
		} else if p == Reverse && d.index == start {
			d.index = end
		}
	case Loop:
		d.index = wrap(d.index, start, end)
	case PingPong:
		d.index = clamp(d.index, start, end)
	}
}

// Next returns the index the next tick should present. It returns false
// when stopped.
func (d *Driver) Next() (frame.Index, bool) {
	return d.Advance(1)
}

// Advance returns the index n frames ahead in the play direction with the
// loop mode applied. Used with n > 1 to skip dropped frames.
func (d *Driver) Advance(n int64) (frame.Index, bool) {
	if d.playback == Stop || d.index == frame.InvalidIndex {
		return d.index, false
	}
	if n < 1 {
		n = 1
	}
	if d.playback == Reverse {
		n = -n
	}
	return d.step(d.index, n), true
}

// Commit makes i the current index and applies the boundary rules: Once
// stops on reaching the end, PingPong turns around.
func (d *Driver) Commit(i frame.Index) {
	if d.index == frame.InvalidIndex {
		return
	}
	start, end := d.Range()
	d.index = clamp(i, start, end)
	if d.playback == Stop {
		return
	}

	switch d.mode {
	case Once:
		if (d.playback == Forward && d.index >= end) || (d.playback == Reverse && d.index <= start) {
			d.playback = Stop
		}
	case PingPong:
		if d.index >= end {
			d.playback = Reverse
		} else if d.index <= start {
			d.playback = Forward
		}
	}
}

// Seek jumps to index i, clamped to the sequence
func (d *Driver) Seek(i frame.Index) {
	last := d.seq.LastIndex()
	if last == frame.InvalidIndex {
		return
	}
	d.index = clamp(i, 0, last)
}

// SeekFrame jumps to frame number n. Frames missing from the sequence are
// ignored and false is returned.
func (d *Driver) SeekFrame(n frame.Number) bool {
	i := d.seq.Index(n)
	if i == frame.InvalidIndex {
		return false
	}
	d.index = i
	return true
}

// Step stops playback and moves delta frames within the range, wrapping in
// Loop mode
func (d *Driver) Step(delta int64) {
	if d.index == frame.InvalidIndex {
		return
	}
	d.playback = Stop
	d.index = d.step(d.index, delta)
}

// Start jumps to the first index of the range
func (d *Driver) Start() {
	if start, _ := d.Range(); start != frame.InvalidIndex {
		d.index = start
	}
}

// End jumps to the last index of the range
func (d *Driver) End() {
	if _, end := d.Range(); end != frame.InvalidIndex {
		d.index = end
	}
}

func (d *Driver) step(i frame.Index, delta int64) frame.Index {
	start, end := d.Range()
	if d.mode == Loop {
		return wrap(i+delta, start, end)
	}
	return clamp(i+delta, start, end)
}

func clamp(i, lo, hi frame.Index) frame.Index {
	return max(lo, min(i, hi))
}

func wrap(i, lo, hi frame.Index) frame.Index {
	size := hi - lo + 1
	if size <= 0 {
		return lo
	}
	return lo + ((i-lo)%size+size)%size
}
