package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings of the viewer
type KeyMap struct {
	// Transport
	Play        key.Binding
	Reverse     key.Binding
	StepForward key.Binding
	StepBack    key.Binding
	Start       key.Binding
	End         key.Binding

	// Range and behavior
	InPoint    key.Binding
	OutPoint   key.Binding
	ClearInOut key.Binding
	Mode       key.Binding
	EveryFrame key.Binding

	// Actions
	Open key.Binding
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/stop"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reverse"),
		),
		StepForward: key.NewBinding(
			key.WithKeys("l", "right", "."),
			key.WithHelp("l/→", "next frame"),
		),
		StepBack: key.NewBinding(
			key.WithKeys("h", "left", ","),
			key.WithHelp("h/←", "previous frame"),
		),
		Start: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "start"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "end"),
		),
		InPoint: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "set in"),
		),
		OutPoint: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "set out"),
		),
		ClearInOut: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear in/out"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "loop mode"),
		),
		EveryFrame: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "every frame"),
		),
		Open: key.NewBinding(
			key.WithKeys("/", "ctrl+o"),
			key.WithHelp("/", "open clip"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.StepForward, k.StepBack, k.Open, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Reverse, k.StepForward, k.StepBack, k.Start, k.End},
		{k.InPoint, k.OutPoint, k.ClearInOut, k.Mode, k.EveryFrame},
		{k.Open, k.Help, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
