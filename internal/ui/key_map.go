package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	camera   key.Binding
	detect   key.Binding
	interval key.Binding
	refresh  key.Binding
	up       key.Binding
	down     key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		camera:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "camera on/off")),
		detect:   key.NewBinding(key.WithKeys("d", " "), key.WithHelp("d/space", "detection on/off")),
		interval: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "cycle interval")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.camera, k.detect, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.camera, k.detect, k.interval},
		{k.up, k.down, k.refresh},
		{k.help, k.quit},
	}
}
