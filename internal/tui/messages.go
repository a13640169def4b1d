package tui

import (
	"time"

	"github.com/darbyjohnston/DJV-sub020/internal/adapter"
	"github.com/darbyjohnston/DJV-sub020/internal/filecache"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/worker"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// FrameTickMsg drives playback; one arrives per refresh interval
type FrameTickMsg struct {
	Time time.Time
}

// ResultMsg carries a decode result to the control loop
type ResultMsg struct {
	Window filecache.WindowID
	Result worker.Result
	// Closed is set when the window's result channel was closed
	Closed bool
}

// ClipsListedMsg signals that a directory listing is ready
type ClipsListedMsg struct {
	Dir   string
	Clips []fileseq.FileInfo
	Err   error
}

// ConfigChangedMsg signals that the config file was rewritten
type ConfigChangedMsg struct {
	Config *adapter.Config
	Err    error
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
