package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left          key.Binding
	Right         key.Binding
	Press         key.Binding
	JSON          key.Binding
	XLSX          key.Binding
	Visualisation key.Binding
	Save          key.Binding
	Verbose       key.Binding
	Cancel        key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding
	Dismiss       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("←", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("→", "next"),
		),
		Press: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "press"),
		),
		JSON: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "json"),
		),
		XLSX: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "xlsx"),
		),
		Visualisation: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "visualise"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save image"),
		),
		Verbose: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug log"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter", "dismiss"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.JSON, k.XLSX, k.Visualisation, k.Save, k.Cancel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Press},
		{k.JSON, k.XLSX, k.Visualisation, k.Save},
		{k.Verbose, k.Cancel, k.Quit},
	}
}
