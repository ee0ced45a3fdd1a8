package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Focus      key.Binding
	NextUnit   key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Allow      key.Binding
	Run        key.Binding
	Reset      key.Binding
	CheckAgain key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		NextUnit:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "next unit")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open entity")),
		NextPage:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
		PrevPage:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "previous page")),
		Allow:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "allow queries")),
		Run:        key.NewBinding(key.WithKeys("ctrl+r", "alt+enter"), key.WithHelp("ctrl+r", "run")),
		Reset:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		CheckAgain: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "check again")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.NextUnit, k.Select, k.PrevPage, k.NextPage, k.Run, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.NextUnit},
		{k.PrevPage, k.NextPage},
		{k.Allow, k.Run, k.Reset},
		{k.CheckAgain, k.Focus, k.Quit},
	}
}
