package invoicelist

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/filter"
	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/store"
	"github.com/pestguard/fieldops/internal/theme"
)

// InvoicesLoadedMsg is sent when invoices have been loaded from the cache.
type InvoicesLoadedMsg struct {
	Invoices []model.Invoice
}

// facets are the invoice status facet values cycled by Tab.
var facets = []string{filter.FacetAll, "paid", "unpaid", "overdue"}

// invItem wraps an invoice for the bubbles list.
type invItem struct {
	inv model.Invoice
}

func (i invItem) FilterValue() string { return i.inv.Number }
func (i invItem) Title() string       { return i.inv.Number }
func (i invItem) Description() string {
	return i.inv.ServiceName + " | " + i.inv.Amount
}

// itemDelegate renders one invoice row.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(invItem)
	if !ok {
		return
	}

	line := fmt.Sprintf(
		"%s %s  %s  %s %s",
		theme.InvoiceStatusStyle(it.inv.Status).Render(it.inv.Status),
		it.inv.Number,
		it.inv.ServiceName,
		it.inv.Amount,
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(it.inv.IssuedDate),
	)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// Model is the invoice list view. Invoices are read-only; the view only
// lists, searches, and filters.
type Model struct {
	list  list.Model
	store store.Store
	keys  *keys.KeyMap

	all        []model.Invoice
	query      string
	facetIndex int

	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new invoice list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Invoices"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search invoices..."
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

// Init returns a command that loads the initial invoice set.
func (m Model) Init() tea.Cmd {
	return m.LoadInvoices()
}

// Update handles messages for the invoice list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case InvoicesLoadedMsg:
		m.all = msg.Invoices
		return m, m.applyFilter()

	case tea.KeyMsg:
		if m.searchMode {
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

		switch {
		case key.Matches(msg, m.keys.Search):
			m.searchMode = true
			return m, m.searchInput.Focus()

		case key.Matches(msg, m.keys.CycleFacet):
			m.facetIndex = (m.facetIndex + 1) % len(facets)
			return m, m.applyFilter()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter recomputes the visible items from the cached snapshot.
func (m *Model) applyFilter() tea.Cmd {
	visible := filter.Apply(m.all, m.query, facets[m.facetIndex])

	items := make([]list.Item, len(visible))
	for i, inv := range visible {
		items[i] = invItem{inv: inv}
	}
	return m.list.SetItems(items)
}

// View renders the invoice list.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No invoices.")
	}

	return m.list.View()
}

// LoadInvoices returns a tea.Cmd that reads the full invoice cache.
func (m Model) LoadInvoices() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		invoices, err := s.GetInvoices(context.Background())
		if err != nil {
			return InvoicesLoadedMsg{Invoices: nil}
		}
		return InvoicesLoadedMsg{Invoices: invoices}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
