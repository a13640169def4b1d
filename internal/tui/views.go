package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/darbyjohnston/DJV-sub020/internal/memory"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/components"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/styles"
)

const cacheBarWidth = 10

// View renders the application
func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}
	if m.picker.IsVisible() {
		return lipgloss.JoinVertical(lipgloss.Left, m.picker.View(), m.renderStatusLine())
	}
	if m.window == nil {
		body := lipgloss.Place(m.Width, max(m.Height-2, 1), lipgloss.Center, lipgloss.Center,
			styles.DimStyle.Render("no clip open, press / to choose one"))
		return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusLine())
	}

	helpView := m.help.View(Keys)
	previewRows := max(m.Height-ChromeHeight-lipgloss.Height(helpView)+1, 1)
	preview := lipgloss.Place(m.Width, previewRows, lipgloss.Center, lipgloss.Center,
		components.RenderPreview(m.window.Current(), m.Width, previewRows))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		preview,
		components.RenderTimeline(m.Width, m.window.Driver(), m.window.Frames()),
		m.renderStatusLine(),
		helpView,
	)
}

func (m Model) renderHeader() string {
	w := m.window
	d := w.Driver()
	info := w.Info()

	title := styles.TitleStyle.Render(styles.Truncate(w.File().Name(), max(m.Width/2, 10)))
	badges := []string{
		playbackBadge(d.Playback()),
		styles.DimBadgeStyle.Render(d.Mode().String()),
		styles.DimBadgeStyle.Render(info.Pixel.String()),
		styles.DimBadgeStyle.Render(fmt.Sprintf("%s fps", info.Speed)),
	}
	if d.EveryFrame() {
		badges = append(badges, styles.DimBadgeStyle.Render("every frame"))
	}
	return title + " " + strings.Join(badges, " ")
}

func playbackBadge(p playback.Playback) string {
	if p == playback.Stop {
		return styles.DimBadgeStyle.Render(p.String())
	}
	return styles.BadgeStyle.Render(p.String())
}

// renderStatusLine shows the frame, the cache usage and any status message
func (m Model) renderStatusLine() string {
	var parts []string
	if w := m.window; w != nil {
		d := w.Driver()
		seq := d.Sequence()
		pos := fmt.Sprintf("%s  [%d/%d]", frameLabel(d), d.Index()+1, seq.FrameCount())
		if p := d.InOut(); p.Enabled {
			pos += styles.DimStyle.Render(fmt.Sprintf("  in %d out %d", seq.Frame(p.In), seq.Frame(p.Out)))
		}
		parts = append(parts, styles.AccentStyle.Render(pos))

		stats := w.Stats()
		parts = append(parts, styles.DimStyle.Render(fmt.Sprintf("dropped %d  stalls %d  %s",
			stats.Dropped, stats.Stalls, w.WorkerState())))
	}

	cache := m.svc.Cache()
	parts = append(parts, fmt.Sprintf("cache %s %s/%s",
		styles.RenderProgressBar(cache.PercentageUsed(), cacheBarWidth),
		memory.FormatSize(cache.CurrentSize()),
		memory.FormatSize(cache.MaxSize())))

	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		parts = append(parts, style.Render(m.StatusMsg))
	}
	return strings.Join(parts, styles.DimStyle.Render("  │  "))
}
