package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
	"github.com/darbyjohnston/DJV-sub020/internal/tui/styles"
)

// ClipSelectedMsg is sent when the user picks a clip
type ClipSelectedMsg struct {
	File fileseq.FileInfo
}

// clipSource implements fuzzy.Source over lower-cased clip names
type clipSource []string

func (s clipSource) String(i int) string { return s[i] }
func (s clipSource) Len() int            { return len(s) }

// Picker is the clip chooser modal: a filter input over a directory
// listing
type Picker struct {
	input   textinput.Model
	clips   []fileseq.FileInfo
	names   clipSource
	matches fuzzy.Matches
	cursor  int
	visible bool
	width   int
	height  int
	dir     string
}

// NewPicker creates a hidden picker
func NewPicker() Picker {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle
	return Picker{input: ti}
}

// SetClips replaces the listing
func (p *Picker) SetClips(dir string, clips []fileseq.FileInfo) {
	p.dir = dir
	p.clips = clips
	p.names = make(clipSource, len(clips))
	for i, c := range clips {
		p.names[i] = strings.ToLower(c.Name())
	}
	p.applyFilter()
}

// Show makes the picker visible with an empty filter
func (p *Picker) Show() {
	p.visible = true
	p.input.SetValue("")
	p.input.Focus()
	p.applyFilter()
}

// Hide hides the picker
func (p *Picker) Hide() {
	p.visible = false
	p.input.Blur()
}

// IsVisible returns true while the picker is shown
func (p Picker) IsVisible() bool { return p.visible }

// SetSize updates the component dimensions
func (p *Picker) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(width-16, 10)
}

// Count returns the number of clips passing the filter
func (p Picker) Count() int { return len(p.matches) }

// Selected returns the clip under the cursor
func (p Picker) Selected() (fileseq.FileInfo, bool) {
	if p.cursor < 0 || p.cursor >= len(p.matches) {
		return fileseq.FileInfo{}, false
	}
	return p.clips[p.matches[p.cursor].Index], true
}

// Update handles keys while visible. The bool reports whether the message
// was consumed.
func (p Picker) Update(msg tea.Msg) (Picker, tea.Cmd, bool) {
	if !p.visible {
		return p, nil, false
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd, false
	}

	switch {
	case key.Matches(keyMsg, PickerKeys.Escape):
		p.Hide()
		return p, nil, true
	case key.Matches(keyMsg, PickerKeys.Enter):
		clip, ok := p.Selected()
		if !ok {
			return p, nil, true
		}
		p.Hide()
		return p, func() tea.Msg { return ClipSelectedMsg{File: clip} }, true
	case key.Matches(keyMsg, PickerKeys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return p, nil, true
	case key.Matches(keyMsg, PickerKeys.Down):
		if p.cursor < len(p.matches)-1 {
			p.cursor++
		}
		return p, nil, true
	}

	prev := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != prev {
		p.applyFilter()
	}
	return p, cmd, true
}

// applyFilter recomputes the matches; an empty query keeps every clip in
// listing order
func (p *Picker) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(p.input.Value()))
	if query == "" {
		p.matches = make(fuzzy.Matches, len(p.names))
		for i, name := range p.names {
			p.matches[i] = fuzzy.Match{Str: name, Index: i}
		}
	} else {
		p.matches = fuzzy.FindFrom(query, p.names)
	}
	p.cursor = 0
}

// View renders the modal centered in the picker area
func (p Picker) View() string {
	if !p.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Open clip"))
	b.WriteString("\n")
	if p.dir != "" {
		b.WriteString(styles.DimStyle.Render(p.dir))
		b.WriteString("\n")
	}
	b.WriteString(p.input.View())
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", len(p.matches), len(p.clips))))
	b.WriteString("\n\n")

	visible := max(p.height-10, 3)
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	end := min(start+visible, len(p.matches))
	if len(p.matches) == 0 {
		b.WriteString(styles.DimStyle.Render("no clips"))
	}
	for i := start; i < end; i++ {
		m := p.matches[i]
		name := p.clips[m.Index].Name()
		b.WriteString(highlightMatches(name, m.MatchedIndexes, i == p.cursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	modal := styles.ModalStyle.Width(max(p.width-8, 20)).Render(b.String())
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, modal)
}

// highlightMatches renders text with the matched runes accented
func highlightMatches(text string, matched []int, selected bool) string {
	normal, accent := styles.NormalItemStyle.UnsetPadding(), styles.MatchHighlightStyle
	if selected {
		normal, accent = styles.SelectedItemStyle.UnsetPadding(), styles.MatchHighlightSelectedStyle
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var b strings.Builder
	b.WriteString(normal.Render(" "))
	// match positions are byte offsets
	for i, r := range text {
		if set[i] {
			b.WriteString(accent.Render(string(r)))
		} else {
			b.WriteString(normal.Render(string(r)))
		}
	}
	b.WriteString(normal.Render(" "))
	return b.String()
}
