package schedule

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/filter"
	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
	"github.com/pestguard/fieldops/internal/store"
	"github.com/pestguard/fieldops/internal/theme"
)

// AppointmentsLoadedMsg is sent when appointments have been loaded from
// the local cache.
type AppointmentsLoadedMsg struct {
	Appointments []model.Appointment
}

// SelectedAppointmentMsg is sent when the user opens an appointment.
type SelectedAppointmentMsg struct {
	ID int
}

// facets are the status facet values cycled by Tab. "all" disables the
// facet; the rest match appointment status codes exactly.
var facets = []string{
	filter.FacetAll,
	model.StatusPending,
	model.StatusConfirmed,
	model.StatusInProgress,
	model.StatusCompleted,
	model.StatusCancelled,
}

// Model is the appointment schedule list view.
type Model struct {
	list  list.Model
	store store.Store
	keys  *keys.KeyMap

	// all holds the unfiltered cache snapshot; the visible list is
	// recomputed from it on every query or facet change.
	all        []model.Appointment
	query      string
	facetIndex int

	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new schedule list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Schedule"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search appointments..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial appointment set.
func (m Model) Init() tea.Cmd {
	return m.LoadAppointments()
}

// Update handles messages for the schedule view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AppointmentsLoadedMsg:
		m.all = msg.Appointments
		return m, m.applyFilter()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The list
// filters live as the query changes.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.applyFilter()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.query = m.searchInput.Value()
	return m, tea.Batch(cmd, m.applyFilter())
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ApptItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedAppointmentMsg{ID: item.Appt.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleFacet):
		m.facetIndex = (m.facetIndex + 1) % len(facets)
		return m, m.applyFilter()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter recomputes the visible items from the cached snapshot.
func (m *Model) applyFilter() tea.Cmd {
	visible := filter.Apply(m.all, m.query, facets[m.facetIndex])

	items := make([]list.Item, len(visible))
	for i, a := range visible {
		items[i] = ApptItem{Appt: a}
	}
	return m.list.SetItems(items)
}

// Facet returns the active status facet value.
func (m Model) Facet() string {
	return facets[m.facetIndex]
}

// FilterSummary describes the active query and facet for the status bar,
// empty when nothing is filtered.
func (m Model) FilterSummary() string {
	summary := ""
	if facets[m.facetIndex] != filter.FacetAll {
		d := status.AppointmentDisplay(facets[m.facetIndex])
		summary = "status: " + d.Label
	}
	if m.query != "" {
		if summary != "" {
			summary += " | "
		}
		summary += "search: " + m.query
	}
	return summary
}

// View renders the schedule view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no appointments are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || facets[m.facetIndex] != filter.FacetAll {
		return style.Render("No matching appointments.\nTry adjusting the search or status filter.")
	}

	return style.Render("No appointments scheduled.\n\nPress r to refresh.")
}

// LoadAppointments returns a tea.Cmd that reads the full appointment
// cache. Search and facet filtering happen in memory.
func (m Model) LoadAppointments() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		appts, err := s.GetAppointments(context.Background(), store.AppointmentFilter{})
		if err != nil {
			return AppointmentsLoadedMsg{Appointments: nil}
		}
		return AppointmentsLoadedMsg{Appointments: appts}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
