package jobdetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/activity"
	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
	"github.com/pestguard/fieldops/internal/theme"
)

// BackMsg signals the parent to navigate back to the job board.
type BackMsg struct{}

// LoadedMsg carries the job state after a load or mutation settles.
type LoadedMsg struct {
	Job *model.Job
	Err error
}

// AdvanceSubmittedMsg asks the parent to move the job to target:
// "Start Job" for pending, "Complete Job" for in_progress.
type AdvanceSubmittedMsg struct {
	ID     int
	Target string
}

// NoteSubmittedMsg asks the parent to append a technician note.
type NoteSubmittedMsg struct {
	ID      int
	Content string
}

// Model is the technician job detail view.
type Model struct {
	job      *model.Job
	viewport viewport.Model
	keys     *keys.KeyMap

	noteForm    *huh.Form
	noteContent *string

	errMessage string
	pending    bool
	loading    bool
	width      int
	height     int
}

// New creates a new job detail model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	content := ""
	return Model{
		viewport:    vp,
		keys:        k,
		noteContent: &content,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetLoading marks the view as waiting for the first load.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.job = nil
		m.errMessage = ""
		m.noteForm = nil
	}
}

// CurrentID returns the displayed job's ID, or 0 before load.
func (m Model) CurrentID() int {
	if m.job == nil {
		return 0
	}
	return m.job.ID
}

// Update handles messages for the job detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.pending = false
		if msg.Job != nil {
			m.job = msg.Job
		}
		m.errMessage = ""
		if msg.Err != nil {
			m.errMessage = msg.Err.Error()
		}
		m.viewport.SetContent(m.renderContent())
		if msg.Err == nil {
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		if m.noteForm != nil {
			return m.updateNoteForm(msg)
		}
		return m.handleViewKeys(msg)
	}

	if m.noteForm != nil {
		return m.updateNoteForm(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Advance):
		if m.job == nil || m.pending {
			break
		}
		if _, _, target, ok := status.JobAction(m.job.Status); ok {
			m.pending = true
			id := m.job.ID
			m.viewport.SetContent(m.renderContent())
			return m, func() tea.Msg {
				return AdvanceSubmittedMsg{ID: id, Target: target}
			}
		}

	case key.Matches(msg, m.keys.AddNote):
		if m.job != nil && !m.pending {
			*m.noteContent = ""
			m.errMessage = ""
			m.noteForm = huh.NewForm(
				huh.NewGroup(
					huh.NewText().
						Title("Note").
						Placeholder("Add a note for this job...").
						Value(m.noteContent),
				),
			).WithWidth(m.width - 8)
			return m, m.noteForm.Init()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateNoteForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.noteForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.noteForm = f
	}

	if m.noteForm.State == huh.StateCompleted {
		m.noteForm = nil
		m.pending = true
		id := m.job.ID
		content := *m.noteContent
		return m, func() tea.Msg {
			return NoteSubmittedMsg{ID: id, Content: content}
		}
	}
	if m.noteForm.State == huh.StateAborted {
		m.noteForm = nil
		return m, nil
	}

	return m, cmd
}

// ActionHints returns the status-bar hint line for the current record.
func (m Model) ActionHints() string {
	if m.noteForm != nil {
		return "enter submit | esc cancel"
	}
	if m.job == nil {
		return "esc back"
	}

	hints := []string{"esc back", "j/k scroll", "o note"}
	if _, label, _, ok := status.JobAction(m.job.Status); ok {
		hints = append(hints, "s "+strings.ToLower(label))
	}
	return strings.Join(hints, " | ")
}

// View renders the job detail view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading job...")
	}

	if m.noteForm != nil {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite).
			MarginBottom(1)
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(titleStyle.Render("Add Note") + "\n" + m.noteForm.View())
	}

	return m.viewport.View()
}

// renderContent builds the scrollable record body.
func (m Model) renderContent() string {
	if m.job == nil {
		return ""
	}
	j := m.job

	var b strings.Builder

	disp := status.JobDisplay(j.Status)
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
			Render(j.Title),
		"  ",
		theme.BadgeStyle(disp.Badge).Render(disp.Icon+" "+disp.Label),
	)
	b.WriteString(header + "\n")

	if m.errMessage != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("⚠ "+m.errMessage) + "\n")
	}
	if m.pending {
		b.WriteString(theme.HelpStyle.Render("saving...") + "\n")
	}
	b.WriteString("\n")

	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(fmt.Sprintf("%s %s\n", label.Render("Customer:"), j.Customer))
	b.WriteString(fmt.Sprintf("%s %s\n", label.Render("Address:"), j.Address))
	b.WriteString(fmt.Sprintf("%s %s\n", label.Render("Scheduled:"), j.Scheduled))

	if _, actionLabel, _, ok := status.JobAction(j.Status); ok {
		b.WriteString("\n" + lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen).
			Render(fmt.Sprintf("[ %s (press s) ]", actionLabel)) + "\n")
	}

	if len(j.Notes) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).
			Foreground(theme.ColorBlue).Render("Notes") + "\n")
		for _, n := range j.Notes {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				label.Render(n.AddedBy.Name), n.Content))
		}
	}

	if len(j.History) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).
			Foreground(theme.ColorBlue).Render("Activity") + "\n")
		for _, e := range activity.Render(j.History) {
			when := ""
			if !e.OccurredAt.IsZero() {
				when = e.OccurredAt.Format("Jan 2 15:04")
			}
			b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
				e.Icon, e.Label, e.Actor, label.Render(when)))
		}
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.job != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
