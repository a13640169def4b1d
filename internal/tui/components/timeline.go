package components

import (
	"slices"
	"strings"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
	"github.com/darbyjohnston/DJV-sub020/internal/playback"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/styles"
)

// CellKind is what one timeline cell shows
type CellKind int

const (
	CellUncached CellKind = iota
	CellCached
	CellOutside // outside the in/out range
	CellPlayhead
)

// TimelineCells maps count frames onto width cells. cached lists the
// indexes of the cached frames. A cell is cached when every frame it covers
// is cached; the playhead cell wins over the rest. Work is bounded by width
// and len(cached), not by count.
func TimelineCells(width int, count int64, cached []frame.Index, current frame.Index, in, out frame.Index) []CellKind {
	if width <= 0 || count <= 0 {
		return nil
	}
	w := int64(width)

	// frames each cell covers and how many of those are cached
	hits := make([]int64, width)
	for _, i := range dedupeIndexes(cached) {
		if i < 0 || i >= count {
			continue
		}
		if count >= w {
			hits[i*w/count]++
			continue
		}
		// more cells than frames: a frame spans several cells
		for c := ceilDiv(i*w, count); c < ceilDiv((i+1)*w, count); c++ {
			hits[c]++
		}
	}

	cells := make([]CellKind, width)
	for c := range cells {
		first, last := cellSpan(int64(c), w, count)

		kind := CellUncached
		if hits[c] >= last-first+1 {
			kind = CellCached
		}
		if last < in || first > out {
			kind = CellOutside
		}
		if current >= first && current <= last {
			kind = CellPlayhead
		}
		cells[c] = kind
	}
	return cells
}

// cellSpan returns the frame indexes cell c covers
func cellSpan(c, width, count int64) (first, last frame.Index) {
	if count < width {
		i := c * count / width
		return i, i
	}
	return ceilDiv(c*count, width), ceilDiv((c+1)*count, width) - 1
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func dedupeIndexes(in []frame.Index) []frame.Index {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// RenderTimeline draws the cache coverage of a clip with the playhead
func RenderTimeline(width int, driver *playback.Driver, cachedFrames []frame.Number) string {
	seq := driver.Sequence()
	count := seq.FrameCount()
	if count <= 0 {
		return styles.DimStyle.Render(strings.Repeat(styles.UncachedChar, max(width, 0)))
	}

	cached := make([]frame.Index, 0, len(cachedFrames))
	for _, n := range cachedFrames {
		if i := seq.Index(n); i >= 0 {
			cached = append(cached, i)
		}
	}
	in, out := driver.Range()

	var b strings.Builder
	for _, kind := range TimelineCells(width, count, cached, driver.Index(), in, out) {
		switch kind {
		case CellCached:
			b.WriteString(styles.CachedStyle.Render(styles.CachedChar))
		case CellOutside:
			b.WriteString(styles.OutsideStyle.Render(styles.UncachedChar))
		case CellPlayhead:
			b.WriteString(styles.PlayheadStyle.Render(styles.PlayheadChar))
		default:
			b.WriteString(styles.UncachedStyle.Render(styles.UncachedChar))
		}
	}
	return b.String()
}
