package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	prev     key.Binding
	next     key.Binding
	toggle   key.Binding
	submit   key.Binding
	download key.Binding
	retry    key.Binding
	close    key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
		download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prev, k.next, k.toggle},
		{k.submit, k.download, k.retry},
		{k.close, k.quit},
	}
}
