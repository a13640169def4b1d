package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/styles"
)

// upper half block: foreground is the top pixel, background the bottom one
const halfBlock = "▀"

// PreviewSize fits an image into cols x rows terminal cells. Each cell
// holds two pixels stacked vertically. It returns the size in cells.
func PreviewSize(imgW, imgH, cols, rows int) (w, h int) {
	if imgW <= 0 || imgH <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	w = cols
	h = imgH * cols / imgW / 2
	if h > rows {
		h = rows
		w = imgW * rows * 2 / imgH
	}
	return max(w, 1), max(h, 1)
}

// RenderPreview draws img with half-block characters, nearest neighbor
// sampled to fit cols x rows
func RenderPreview(img *domain.Image, cols, rows int) string {
	if img == nil || !img.Info.IsValid() {
		return styles.DimStyle.Render("no image")
	}
	info := img.Info
	w, h := PreviewSize(info.Width, info.Height, cols, rows)
	if w == 0 {
		return ""
	}

	lines := make([]string, h)
	var b strings.Builder
	for y := 0; y < h; y++ {
		b.Reset()
		top := (2 * y) * info.Height / (2 * h)
		bottom := min((2*y+1)*info.Height/(2*h), info.Height-1)
		for x := 0; x < w; x++ {
			sx := x * info.Width / w
			style := lipgloss.NewStyle().
				Foreground(pixelColor(img, sx, top)).
				Background(pixelColor(img, sx, bottom))
			b.WriteString(style.Render(halfBlock))
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func pixelColor(img *domain.Image, x, y int) lipgloss.Color {
	r, g, b, _ := img.RGBA(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, b))
}
