package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	stop      key.Binding
	clear     key.Binding
	moreTrack key.Binding
	lessTrack key.Binding
	moreHours key.Binding
	lessHours key.Binding
	playlist  key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		moreTrack: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "tracks")),
		lessTrack: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "tracks")),
		moreHours: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "hours")),
		lessHours: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "hours")),
		playlist:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "playlist")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.stop, k.clear, k.moreTrack, k.lessTrack, k.moreHours, k.lessHours, k.playlist, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.stop, k.clear},
		{k.moreTrack, k.lessTrack, k.moreHours, k.lessHours},
		{k.playlist, k.quit},
	}
}
