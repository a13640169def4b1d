// Package tui is the interactive viewer: a Bubble Tea program whose Update
// loop is the control goroutine that owns the open window.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/darbyjohnston/DJV-sub020/internal/adapter"
	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/service"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/components"
)

const (
	defaultTickRate = 60
	statusTimeout   = 3 * time.Second

	// header, timeline, status and help lines
	ChromeHeight = 5
)

// Options configures the viewer model
type Options struct {
	// Window is the clip to show first; nil opens the picker on Dir
	Window *service.Window
	Dir    string
	Config *adapter.Config
	// ConfigEvents delivers config reloads, see ConfigObserver
	ConfigEvents <-chan ConfigChangedMsg
	Logger       *slog.Logger
}

// Model is the main Bubble Tea model for the viewer
type Model struct {
	svc    *service.Context
	window *service.Window
	cfg    *adapter.Config
	logger *slog.Logger

	// UI components
	help     help.Model
	picker   components.Picker
	showHelp bool

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	dir         string

	// Playback clock
	tickInterval time.Duration
	frameTime    time.Duration
	lastTick     time.Time
	carry        time.Duration

	configEvents <-chan ConfigChangedMsg
}

// NewModel creates the viewer model
func NewModel(svc *service.Context, opts Options) Model {
	if opts.Config == nil {
		opts.Config = adapter.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	rate := opts.Config.Playback.TickRate
	if rate <= 0 {
		rate = defaultTickRate
	}

	m := Model{
		svc:          svc,
		cfg:          opts.Config,
		logger:       opts.Logger,
		help:         help.New(),
		picker:       components.NewPicker(),
		dir:          opts.Dir,
		tickInterval: time.Second / time.Duration(rate),
		configEvents: opts.ConfigEvents,
	}
	if opts.Window != nil {
		m.setWindow(opts.Window)
	} else {
		m.picker.Show()
	}
	return m
}

// Window returns the window on screen, or nil
func (m Model) Window() *service.Window { return m.window }

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		FrameTickCmd(m.tickInterval),
		ListClipsCmd(m.svc, m.dir),
		WaitForConfigCmd(m.configEvents),
	}
	if m.window != nil {
		cmds = append(cmds, WaitForResultCmd(m.window))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.picker.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.picker.IsVisible() {
			var cmd tea.Cmd
			m.picker, cmd, _ = m.picker.Update(msg)
			return m, cmd
		}
		return m.handleKeyMsg(msg)

	case FrameTickMsg:
		m.tick(msg.Time)
		return m, FrameTickCmd(m.tickInterval)

	case ResultMsg:
		if m.window == nil || msg.Window != m.window.ID() || msg.Closed {
			// result of a window that was replaced
			return m, nil
		}
		m.window.HandleResult(msg.Result)
		return m, WaitForResultCmd(m.window)

	case ClipsListedMsg:
		if msg.Err != nil {
			return m.setStatus(fmt.Sprintf("listing %s: %v", msg.Dir, msg.Err), true)
		}
		m.picker.SetClips(msg.Dir, msg.Clips)
		return m, nil

	case components.ClipSelectedMsg:
		return m.openClip(msg.File.Path())

	case ConfigChangedMsg:
		m = m.applyConfig(msg)
		return m, tea.Batch(WaitForConfigCmd(m.configEvents), ClearStatusCmd(statusTimeout))

	case ErrMsg:
		return m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd, _ = m.picker.Update(msg)
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		m.closeWindow()
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, Keys.Open):
		m.picker.Show()
		return m, ListClipsCmd(m.svc, m.dir)
	}

	w := m.window
	if w == nil {
		return m, nil
	}
	d := w.Driver()

	switch {
	case key.Matches(msg, Keys.Play):
		w.TogglePlayback()
		m.resetClock()
	case key.Matches(msg, Keys.Reverse):
		if d.Playback() == playback.Reverse {
			w.SetPlayback(playback.Stop)
		} else {
			w.SetPlayback(playback.Reverse)
		}
		m.resetClock()
	case key.Matches(msg, Keys.StepForward):
		w.Step(1)
	case key.Matches(msg, Keys.StepBack):
		w.Step(-1)
	case key.Matches(msg, Keys.Start):
		start, _ := d.Range()
		w.Seek(start)
	case key.Matches(msg, Keys.End):
		_, end := d.Range()
		w.Seek(end)
	case key.Matches(msg, Keys.InPoint):
		p := inOutOrFull(d)
		p.In = d.Index()
		w.SetInOut(p)
	case key.Matches(msg, Keys.OutPoint):
		p := inOutOrFull(d)
		p.Out = d.Index()
		w.SetInOut(p)
	case key.Matches(msg, Keys.ClearInOut):
		w.SetInOut(playback.InOutPoints{})
	case key.Matches(msg, Keys.Mode):
		w.SetMode(nextMode(d.Mode()))
		return m.setStatus("mode: "+d.Mode().String(), false)
	case key.Matches(msg, Keys.EveryFrame):
		w.SetEveryFrame(!d.EveryFrame())
		return m.setStatus(fmt.Sprintf("every frame: %t", d.EveryFrame()), false)
	default:
		return m, nil
	}

	// show the new position right away when stopped
	if d.Playback() == playback.Stop {
		w.Drain()
		w.Tick()
	}
	return m, nil
}

// tick advances playback by the frames due since the last tick. The
// refresh rate may be slower than the clip rate, so several frames can be
// due at once; all but one are dropped unless every frame must be shown.
func (m *Model) tick(now time.Time) {
	w := m.window
	if w == nil {
		return
	}
	w.Drain()

	if w.Driver().Playback() == playback.Stop {
		m.lastTick = time.Time{}
		w.Tick()
		return
	}
	if m.lastTick.IsZero() {
		m.lastTick = now
		w.Tick()
		return
	}
	m.carry += now.Sub(m.lastTick)
	m.lastTick = now

	due := int64(m.carry / m.frameTime)
	if due < 1 {
		return
	}
	m.carry -= time.Duration(due) * m.frameTime

	skip := due - 1
	if w.Driver().EveryFrame() {
		skip = 0
	}
	if res := w.TickN(skip); res.Stalled {
		// waiting on the decoder does not earn extra frames
		m.carry = 0
	}
}

func (m *Model) resetClock() {
	m.lastTick = time.Time{}
	m.carry = 0
}

func (m Model) openClip(path string) (tea.Model, tea.Cmd) {
	w, err := m.svc.OpenWindow(context.Background(), path)
	if err != nil {
		m.picker.Show()
		return m.setStatus(fmt.Sprintf("open %s: %v", path, err), true)
	}
	m.closeWindow()
	m.setWindow(w)
	w.Tick()
	status := fmt.Sprintf("opened %s (%d frames)", w.File().Name(), w.Info().FrameCount())
	m, cmd := m.setStatus(status, false)
	return m, tea.Batch(cmd, WaitForResultCmd(w))
}

func (m *Model) setWindow(w *service.Window) {
	m.window = w
	m.frameTime = clipFrameTime(w.Info(), m.cfg)
	m.resetClock()
	if w.File().Dir != "" {
		m.dir = w.File().Dir
	}
}

func (m *Model) closeWindow() {
	if m.window != nil {
		m.window.Close()
		m.window = nil
	}
}

func (m Model) applyConfig(msg ConfigChangedMsg) Model {
	if msg.Err != nil {
		m.StatusMsg = "config: " + msg.Err.Error()
		m.StatusIsErr = true
		return m
	}
	cfg := msg.Config
	m.cfg = cfg
	m.svc.SetCacheSize(cfg.CacheBytes())
	if m.window != nil {
		if mode, err := cfg.PlaybackMode(); err == nil {
			m.window.SetMode(mode)
		}
		m.window.SetEveryFrame(cfg.Playback.EveryFrame)
		m.frameTime = clipFrameTime(m.window.Info(), cfg)
	}
	m.logger.Info("Config reloaded", "cache_bytes", cfg.CacheBytes())
	m.StatusMsg = "config reloaded"
	m.StatusIsErr = false
	return m
}

func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

// clipFrameTime is the configured speed, or the clip rate when unset
func clipFrameTime(info domain.Info, cfg *adapter.Config) time.Duration {
	if cfg != nil && cfg.Playback.Speed > 0 {
		return domain.SpeedFromFPS(cfg.Playback.Speed).FrameDuration()
	}
	return info.Speed.FrameDuration()
}

func inOutOrFull(d *playback.Driver) playback.InOutPoints {
	p := d.InOut()
	if !p.Enabled {
		start, end := d.Range()
		p = playback.InOutPoints{Enabled: true, In: start, Out: end}
	}
	return p
}

func nextMode(m playback.Mode) playback.Mode {
	switch m {
	case playback.Once:
		return playback.Loop
	case playback.Loop:
		return playback.PingPong
	default:
		return playback.Once
	}
}

// frameLabel formats the current frame with the clip padding
func frameLabel(d *playback.Driver) string {
	n := d.CurrentFrame()
	if n == frame.Invalid {
		return "-"
	}
	return frame.FormatNumber(n, d.Sequence().Pad())
}
