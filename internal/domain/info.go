package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

// Info holds the metadata of an opened clip
type Info struct {
	FileName string         `json:"fileName"`
	Pixel    PixelInfo      `json:"pixel"`
	Sequence frame.Sequence `json:"sequence"`
	Speed    Speed          `json:"speed"`
}

// FrameCount returns the number of frames in the clip. Single files count
// as one frame.
func (i Info) FrameCount() int64 {
	if !i.Sequence.IsValid() {
		return 1
	}
	return i.Sequence.FrameCount()
}

// Speed is a playback rate in frames per second, stored as a rational so
// that NTSC rates stay exact.
type Speed struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// Common production frame rates
var (
	Speed1     = Speed{1, 1}
	Speed3     = Speed{3, 1}
	Speed6     = Speed{6, 1}
	Speed12    = Speed{12, 1}
	Speed15    = Speed{15, 1}
	Speed16    = Speed{16, 1}
	Speed18    = Speed{18, 1}
	Speed23976 = Speed{24000, 1001}
	Speed24    = Speed{24, 1}
	Speed25    = Speed{25, 1}
	Speed2997  = Speed{30000, 1001}
	Speed30    = Speed{30, 1}
	Speed50    = Speed{50, 1}
	Speed5994  = Speed{60000, 1001}
	Speed60    = Speed{60, 1}
	Speed120   = Speed{120, 1}
)

// DefaultSpeed is used when a clip does not carry its own rate
var DefaultSpeed = Speed24

// SpeedPresets lists the rates offered to the user, slowest first
var SpeedPresets = []Speed{
	Speed1, Speed3, Speed6, Speed12, Speed15, Speed16, Speed18,
	Speed23976, Speed24, Speed25, Speed2997, Speed30,
	Speed50, Speed5994, Speed60, Speed120,
}

// SpeedFromFPS returns the preset closest to fps. Rates that match no
// preset within 0.01 are stored with millisecond precision.
func SpeedFromFPS(fps float64) Speed {
	if fps <= 0 {
		return DefaultSpeed
	}
	for _, s := range SpeedPresets {
		if d := s.FPS() - fps; d > -0.01 && d < 0.01 {
			return s
		}
	}
	return Speed{Num: int(fps * 1000), Den: 1000}
}

// IsValid returns true for a positive rate
func (s Speed) IsValid() bool {
	return s.Num > 0 && s.Den > 0
}

// FPS returns the rate as a float
func (s Speed) FPS() float64 {
	if !s.IsValid() {
		return 0
	}
	return float64(s.Num) / float64(s.Den)
}

// FrameDuration returns the time one frame stays on screen
func (s Speed) FrameDuration() time.Duration {
	if !s.IsValid() {
		return DefaultSpeed.FrameDuration()
	}
	return time.Duration(int64(time.Second) * int64(s.Den) / int64(s.Num))
}

// String formats the rate, e.g. "23.976"
func (s Speed) String() string {
	fps := s.FPS()
	if s.Den == 1 {
		return fmt.Sprintf("%d", s.Num)
	}
	return strings.TrimRight(fmt.Sprintf("%.3f", fps), "0")
}
