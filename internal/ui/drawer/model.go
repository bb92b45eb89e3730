package drawer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/notify"
	"github.com/pestguard/fieldops/internal/theme"
)

// CloseMsg signals the parent to close the notification drawer.
type CloseMsg struct{}

// MarkReadMsg asks the parent to mark one notification read.
type MarkReadMsg struct {
	ID int
}

// MarkAllReadMsg asks the parent to mark every notification read.
type MarkAllReadMsg struct{}

// OpenJobMsg asks the parent to open the job a notification points at.
type OpenJobMsg struct {
	JobID int
}

// notifItem wraps a notification for the bubbles list.
type notifItem struct {
	n model.Notification
}

func (i notifItem) FilterValue() string { return i.n.Title }
func (i notifItem) Title() string       { return i.n.Title }
func (i notifItem) Description() string { return i.n.Message }

// itemDelegate renders one notification row; unread rows carry a dot and
// stay bold.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(notifItem)
	if !ok {
		return
	}

	marker := " "
	titleStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if !it.n.Read {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
		titleStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	}

	typeBadge := theme.NotificationTypeStyle(it.n.Type).Render(it.n.Type)

	line := fmt.Sprintf("%s %s %s\n  %s",
		marker,
		titleStyle.Render(it.n.Title),
		typeBadge,
		theme.HelpStyle.Render(it.n.Message),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// Model is the notification drawer view. It renders straight from the
// shared notify.Store so the badge and drawer can never disagree.
type Model struct {
	list   list.Model
	store  *notify.Store
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new drawer model backed by the shared notification store.
func New(s *notify.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init reloads the visible rows from the store.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload snapshots the store into the list. Called whenever the parent
// learns the store changed.
func (m *Model) Reload() tea.Cmd {
	notifs := m.store.All()
	items := make([]list.Item, len(notifs))
	for i, n := range notifs {
		items[i] = notifItem{n: n}
	}
	return m.list.SetItems(items)
}

// Update handles messages for the drawer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Notifications):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(notifItem)
			if !ok {
				return m, nil
			}
			cmds := []tea.Cmd{}
			if !item.n.Read {
				id := item.n.ID
				cmds = append(cmds, func() tea.Msg { return MarkReadMsg{ID: id} })
			}
			if item.n.Type == model.NotificationTypeJob && item.n.JobID != 0 {
				jobID := item.n.JobID
				cmds = append(cmds, func() tea.Msg { return OpenJobMsg{JobID: jobID} })
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, m.keys.MarkAllRead):
			if m.store.UnreadCount() > 0 {
				return m, func() tea.Msg { return MarkAllReadMsg{} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the drawer.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
	}

	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
