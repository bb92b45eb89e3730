package jobboard

import (
	"context"
	"fmt"
	"io"
	"strings"

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

// JobsLoadedMsg is sent when jobs have been loaded from the local cache.
type JobsLoadedMsg struct {
	Jobs []model.Job
}

// SelectedJobMsg is sent when the user opens a job.
type SelectedJobMsg struct {
	ID int
}

// facets are the job status facet values cycled by Tab.
var facets = []string{
	filter.FacetAll,
	model.StatusPending,
	model.StatusInProgress,
	model.StatusCompleted,
}

// JobItem wraps a model.Job so it can be used in a bubbles/list.
type JobItem struct {
	Job model.Job
}

// FilterValue returns the string used for fuzzy filtering.
func (i JobItem) FilterValue() string { return i.Job.Title }

// Title returns the job title for the list.
func (i JobItem) Title() string { return i.Job.Title }

// Description returns a short summary line for the list.
func (i JobItem) Description() string {
	d := status.JobDisplay(i.Job.Status)
	return strings.Join([]string{d.Label, i.Job.Customer, i.Job.Scheduled}, " | ")
}

// itemDelegate renders a single job row.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(JobItem)
	if !ok {
		return
	}

	disp := status.JobDisplay(it.Job.Status)
	badge := theme.BadgeStyle(disp.Badge).Render(disp.Icon + " " + disp.Label)

	line := fmt.Sprintf(
		"%s %s  %s  %s",
		badge,
		it.Job.Title,
		it.Job.Customer,
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(it.Job.Scheduled),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// Model is the technician job board list view.
type Model struct {
	list  list.Model
	store store.Store
	keys  *keys.KeyMap

	all        []model.Job
	query      string
	facetIndex int

	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new job board model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Jobs"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search jobs..."
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

// Init returns a command that loads the initial job set.
func (m Model) Init() tea.Cmd {
	return m.LoadJobs()
}

// Update handles messages for the job board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case JobsLoadedMsg:
		m.all = msg.Jobs
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

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(JobItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedJobMsg{ID: item.Job.ID}
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
	for i, j := range visible {
		items[i] = JobItem{Job: j}
	}
	return m.list.SetItems(items)
}

// FilterSummary describes the active query and facet for the status bar.
func (m Model) FilterSummary() string {
	summary := ""
	if facets[m.facetIndex] != filter.FacetAll {
		summary = "status: " + status.JobDisplay(facets[m.facetIndex]).Label
	}
	if m.query != "" {
		if summary != "" {
			summary += " | "
		}
		summary += "search: " + m.query
	}
	return summary
}

// View renders the job board.
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

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || facets[m.facetIndex] != filter.FacetAll {
		return style.Render("No matching jobs.\nTry adjusting the search or status filter.")
	}

	return style.Render("No jobs assigned.\n\nPress r to refresh.")
}

// LoadJobs returns a tea.Cmd that reads the full job cache.
func (m Model) LoadJobs() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		jobs, err := s.GetJobs(context.Background(), store.JobFilter{})
		if err != nil {
			return JobsLoadedMsg{Jobs: nil}
		}
		return JobsLoadedMsg{Jobs: jobs}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
