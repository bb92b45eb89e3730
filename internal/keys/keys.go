package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// View switching
	ViewSchedule key.Binding
	ViewJobs     key.Binding
	ViewInvoices key.Binding

	// Status facet cycling
	CycleFacet key.Binding

	// Notification drawer
	Notifications key.Binding
	MarkAllRead   key.Binding

	// Record actions
	AddNote    key.Binding
	Cancel     key.Binding
	Reschedule key.Binding
	Advance    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		ViewSchedule: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "schedule"),
		),
		ViewJobs: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "jobs"),
		),
		ViewInvoices: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "invoices"),
		),
		CycleFacet: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle status filter"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		AddNote: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "add note"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel appointment"),
		),
		Reschedule: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "reschedule"),
		),
		Advance: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/complete"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.CycleFacet, k.Help, k.Refresh},
		{k.ViewSchedule, k.ViewJobs, k.ViewInvoices, k.Notifications, k.MarkAllRead},
		{k.AddNote, k.Cancel, k.Reschedule, k.Advance},
	}
}
