package components

import "github.com/charmbracelet/bubbles/key"

// PickerKeyMap defines key bindings for the clip picker
type PickerKeyMap struct {
	Escape key.Binding
	Enter  key.Binding
	Up     key.Binding
	Down   key.Binding
}

// DefaultPickerKeyMap returns the default picker key bindings
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/C-p", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/C-n", "next"),
		),
	}
}

// PickerKeys is the package-level picker key map
var PickerKeys = DefaultPickerKeyMap()
