package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/adapter"
	"github.com/darbyjohnston/DJV-sub020/internal/filecache"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/memory"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/service"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/components"
)

func writePNGSequence(t *testing.T, fs afero.Fs, frames int) string {
	t.Helper()
	for n := 1; n <= frames; n++ {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.RGBA{R: uint8(n), A: 255})
		f, err := fs.Create(fmt.Sprintf("/clips/plate.%04d.png", n))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
	return "/clips/plate.0001.png"
}

func newTestModel(t *testing.T) (Model, *service.Context) {
	t.Helper()
	fs := afero.NewMemMapFs()
	path := writePNGSequence(t, fs, 10)

	svc, err := service.NewContext(service.Options{
		CacheBytes: memory.Megabyte,
		Prefetch:   2,
		Mode:       playback.Loop,
		Fs:         fs,
		Logger:     adapter.NullLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	w, err := svc.OpenWindow(context.Background(), path)
	require.NoError(t, err)

	m := NewModel(svc, Options{Window: w, Logger: adapter.NullLogger()})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, svc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewShowsClip(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "plate.0001-0010.png")
	assert.Contains(t, view, "stop")
	assert.Contains(t, view, "cache")
}

func TestPlayKeyTogglesPlayback(t *testing.T) {
	m, _ := newTestModel(t)
	d := m.Window().Driver()

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, playback.Forward, d.Playback())

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, playback.Stop, d.Playback())

	update(t, m, runes("r"))
	assert.Equal(t, playback.Reverse, d.Playback())
}

func TestStepAndSeekKeys(t *testing.T) {
	m, _ := newTestModel(t)
	d := m.Window().Driver()

	m = update(t, m, runes("l"))
	m = update(t, m, runes("l"))
	assert.Equal(t, frame.Index(2), d.Index())

	m = update(t, m, runes("h"))
	assert.Equal(t, frame.Index(1), d.Index())

	m = update(t, m, runes("G"))
	assert.Equal(t, frame.Number(10), d.CurrentFrame())

	update(t, m, runes("g"))
	assert.Equal(t, frame.Number(1), d.CurrentFrame())
}

func TestInOutKeys(t *testing.T) {
	m, _ := newTestModel(t)
	d := m.Window().Driver()

	m = update(t, m, runes("l"))
	m = update(t, m, runes("i"))
	m = update(t, m, runes("G"))
	assert.Equal(t, frame.Index(9), d.Index())

	m = update(t, m, runes("h"))
	m = update(t, m, runes("o"))
	start, end := d.Range()
	assert.Equal(t, frame.Index(1), start)
	assert.Equal(t, frame.Index(8), end)
	assert.Contains(t, m.View(), "in 2 out 9")

	update(t, m, runes("x"))
	assert.False(t, d.InOut().Enabled)
}

func TestModeAndEveryFrameKeys(t *testing.T) {
	m, _ := newTestModel(t)
	d := m.Window().Driver()

	m = update(t, m, runes("m"))
	assert.Equal(t, playback.PingPong, d.Mode())
	assert.Contains(t, m.StatusMsg, "mode")

	update(t, m, runes("e"))
	assert.True(t, d.EveryFrame())
}

func TestFrameTicksDropWhenLate(t *testing.T) {
	m, _ := newTestModel(t)
	d := m.Window().Driver()
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	t0 := time.Unix(100, 0)
	m = update(t, m, FrameTickMsg{Time: t0})
	assert.Equal(t, frame.Index(1), d.Index())

	// 100ms at 24 fps is two frames due: one shown, one skipped
	update(t, m, FrameTickMsg{Time: t0.Add(100 * time.Millisecond)})
	assert.Equal(t, frame.Index(3), d.Index())
}

func TestResultForOtherWindowIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.Window().Stats()

	next, cmd := m.Update(ResultMsg{Window: filecache.NewWindowID()})
	assert.Nil(t, cmd)
	assert.Equal(t, before, next.(Model).Window().Stats())
}

func TestConfigChangeResizesCache(t *testing.T) {
	m, svc := newTestModel(t)

	cfg := adapter.DefaultConfig()
	cfg.Cache.SizeGB = 2
	cfg.Playback.Mode = "once"
	m = update(t, m, ConfigChangedMsg{Config: cfg})

	assert.Equal(t, 2*memory.Gigabyte, svc.Cache().MaxSize())
	assert.Equal(t, playback.Once, m.Window().Driver().Mode())
	assert.Equal(t, "config reloaded", m.StatusMsg)

	m = update(t, m, ConfigChangedMsg{Err: errors.New("bad yaml")})
	assert.True(t, m.StatusIsErr)
	assert.Equal(t, 2*memory.Gigabyte, svc.Cache().MaxSize())
}

func TestPickerOpensClip(t *testing.T) {
	m, svc := newTestModel(t)
	old := m.Window()

	m = update(t, m, runes("/"))
	msg := ListClipsCmd(svc, "/clips")()
	m = update(t, m, msg)
	assert.Contains(t, m.View(), "plate.0001-0010.png")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	selected, ok := cmd().(components.ClipSelectedMsg)
	require.True(t, ok)

	m = update(t, m, selected)
	require.NotNil(t, m.Window())
	assert.NotEqual(t, old.ID(), m.Window().ID())
	assert.Equal(t, 1, svc.Windows())
}

func TestConfigObserverDoesNotBlock(t *testing.T) {
	o := NewConfigObserver()
	o.OnChange(adapter.DefaultConfig(), nil)
	o.OnChange(nil, errors.New("second"))

	msg := <-o.Events()
	assert.NotNil(t, msg.Config)
	assert.Nil(t, WaitForConfigCmd(nil))
}
