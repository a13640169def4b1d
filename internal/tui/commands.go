package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/darbyjohnston/DJV-sub020/internal/service"
)

// Command factories for async operations

// FrameTickCmd schedules the next playback tick
func FrameTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameTickMsg{Time: t}
	})
}

// WaitForResultCmd blocks until the window delivers a decode result.
// Re-issue it after every ResultMsg.
func WaitForResultCmd(w *service.Window) tea.Cmd {
	id := w.ID()
	results := w.Results()
	return func() tea.Msg {
		r, ok := <-results
		if !ok {
			return ResultMsg{Window: id, Closed: true}
		}
		return ResultMsg{Window: id, Result: r}
	}
}

// ListClipsCmd lists the playable clips of dir
func ListClipsCmd(svc *service.Context, dir string) tea.Cmd {
	return func() tea.Msg {
		clips, err := svc.Browse(dir)
		return ClipsListedMsg{Dir: dir, Clips: clips, Err: err}
	}
}

// WaitForConfigCmd waits for the next config reload
func WaitForConfigCmd(ch <-chan ConfigChangedMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// ClearStatusCmd clears the status line after d
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
