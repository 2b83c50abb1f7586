package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	photo  key.Binding
	rerun  key.Binding
	params key.Binding
	quit   key.Binding
	cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		photo:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new photo")),
		rerun:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run again")),
		params: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parameters")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		cancel: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.photo, k.rerun},
		{k.params, k.quit},
	}
}
