package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// View switching
	ViewProducts key.Binding
	ViewSales    key.Binding
	ViewLogs     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Lists
	Search    key.Binding
	CycleSort key.Binding

	// Product actions
	AddProduct  key.Binding
	RecordSale  key.Binding
	UpdateStock key.Binding
	Delete      key.Binding

	// Logs
	ToggleFollow key.Binding
	LogLevel     key.Binding

	// Forms
	Confirm  key.Binding
	NextItem key.Binding
	PrevItem key.Binding
}

// bind builds a binding whose help label is the first key.
func bind(desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	space := bind("Toggle follow mode", " ")
	space.SetHelp("Space", "Toggle follow mode")

	return keyMap{
		Quit:       bind("Quit", "ctrl+c"),
		Help:       bind("Toggle help", "?"),
		CycleTheme: bind("Cycle theme", "T"),
		Escape:     bind("Back / dismiss alert", "esc"),
		Refresh:    bind("Reload products or sales", "r"),

		ViewProducts: bind("Products", "1"),
		ViewSales:    bind("Sales", "s"),
		ViewLogs:     bind("Client log", "L"),

		Up:     bind("Move up", "k", "up"),
		Down:   bind("Move down (loads more sales near the end)", "j", "down"),
		Top:    bind("Go to top", "g", "home"),
		Bottom: bind("Go to bottom", "G", "end"),

		Search:    bind("Search by product name", "/"),
		CycleSort: bind("Cycle sales sort (date, name, price)", "o"),

		AddProduct:  bind("Add product", "a"),
		RecordSale:  bind("Record sale of selected product", "+"),
		UpdateStock: bind("Update stock", "u"),
		Delete:      bind("Delete product", "D"),

		ToggleFollow: space,
		LogLevel:     bind("Cycle minimum log level", "f"),

		Confirm:  bind("Confirm", "enter"),
		NextItem: bind("Next field", "tab", "down"),
		PrevItem: bind("Previous field", "shift+tab", "up"),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewProducts, k.ViewSales, k.ViewLogs, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Search, k.CycleSort, k.Refresh},
		{k.AddProduct, k.RecordSale, k.UpdateStock, k.Delete},
		{k.ToggleFollow, k.LogLevel},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
