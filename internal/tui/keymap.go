package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit       key.Binding
	reload     key.Binding
	toggleHelp key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	grabTask   key.Binding
	grabColumn key.Binding
	drop       key.Binding
	cancel     key.Binding
	addTask    key.Binding
	taskInfo   key.Binding
	copyID     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		grabTask:   key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "grab task")),
		grabColumn: key.NewBinding(key.WithKeys("C", "shift+c"), key.WithHelp("C", "grab column")),
		drop:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		addTask:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyID:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.grabTask, k.grabColumn, k.addTask, k.taskInfo, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.grabTask, k.grabColumn, k.drop, k.cancel},
		{k.addTask, k.taskInfo, k.copyID, k.reload, k.toggleHelp, k.quit},
	}
}

// gestureHelp lists the bindings that apply while an element is held.
func (k keyMap) gestureHelp() []key.Binding {
	return []key.Binding{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.drop, k.cancel}
}
