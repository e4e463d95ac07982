package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit    key.Binding
	Search  key.Binding
	Back    key.Binding
	Open    key.Binding
	Refresh key.Binding
}

// Row navigation is left to the bubbles table key map.
var Keys = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open imdb")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
}

// HelpText renders bindings as "k action" pairs for the status bar.
func HelpText(bindings ...key.Binding) string {
	s := ""
	for i, b := range bindings {
		if i > 0 {
			s += "  "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
