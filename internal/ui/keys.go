package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap implements help.KeyMap.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Pick     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Trash    key.Binding
	New      key.Binding
	RaiseEl  key.Binding
	LowerEl  key.Binding
	RoomLeft key.Binding
	RoomRt   key.Binding
	Help     key.Binding
	Debug    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev room")),
	Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next room")),
	Pick:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
	Drop:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Trash:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "trash")),
	New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
	RaiseEl:  key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "raise")),
	LowerEl:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "lower")),
	RoomLeft: key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "room left")),
	RoomRt:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "room right")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Debug:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "events")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pick, k.Drop, k.Trash, k.New, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Pick, k.Drop, k.Cancel, k.Trash, k.New},
		{k.RaiseEl, k.LowerEl, k.RoomLeft, k.RoomRt},
		{k.Help, k.Debug, k.Quit},
	}
}
