package tui

import "charm.land/bubbles/v2/key"

// keyMap drives the help bubble; actual dispatch goes through the intent
// resolver.
type keyMap struct {
	moveUp       key.Binding
	moveDown     key.Binding
	work         key.Binding
	reference    key.Binding
	edit         key.Binding
	create       key.Binding
	toggleStatus key.Binding
	toggleType   key.Binding
	setPriority  key.Binding
	search       key.Binding
	view         key.Binding
	scroll       key.Binding
	refresh      key.Binding
	quit         key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		moveUp:       key.NewBinding(key.WithKeys("w", "up", "k"), key.WithHelp("w/↑", "up")),
		moveDown:     key.NewBinding(key.WithKeys("s", "down", "j"), key.WithHelp("s/↓", "down")),
		work:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "work on task")),
		reference:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "copy reference")),
		edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		create:       key.NewBinding(key.WithKeys("n", "c"), key.WithHelp("n", "new task")),
		toggleStatus: key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "cycle status")),
		toggleType:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle type")),
		setPriority:  key.NewBinding(key.WithKeys("0", "1", "2", "3", "4"), key.WithHelp("0-4", "priority")),
		search:       key.NewBinding(key.WithKeys("ctrl+f", "/"), key.WithHelp("ctrl+f", "filter")),
		view:         key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view description")),
		scroll:       key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "scroll preview")),
		refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		quit:         key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.work, k.edit, k.create, k.toggleStatus, k.search, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.scroll, k.view},
		{k.work, k.reference, k.edit, k.create},
		{k.toggleStatus, k.toggleType, k.setPriority, k.search, k.refresh, k.quit},
	}
}
