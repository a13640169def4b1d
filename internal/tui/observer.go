package tui

import "github.com/darbyjohnston/DJV-sub020/internal/adapter"

// ConfigObserver adapts adapter.WatchConfig callbacks to a channel for
// Bubble Tea.
type ConfigObserver struct {
	ch chan ConfigChangedMsg
}

// NewConfigObserver creates an observer with a small buffer
func NewConfigObserver() *ConfigObserver {
	return &ConfigObserver{ch: make(chan ConfigChangedMsg, 1)}
}

// OnChange sends the reloaded config (non-blocking if full)
func (o *ConfigObserver) OnChange(cfg *adapter.Config, err error) {
	select {
	case o.ch <- ConfigChangedMsg{Config: cfg, Err: err}:
	default: // a reload is already pending
	}
}

// Events returns the channel read by WaitForConfigCmd
func (o *ConfigObserver) Events() <-chan ConfigChangedMsg { return o.ch }
