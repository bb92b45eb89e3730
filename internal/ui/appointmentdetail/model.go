package appointmentdetail

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pestguard/fieldops/internal/activity"
	"github.com/pestguard/fieldops/internal/controller"
	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
	"github.com/pestguard/fieldops/internal/theme"
)

// BackMsg signals the parent to navigate back to the schedule.
type BackMsg struct{}

// LoadedMsg carries the appointment state after a load or mutation
// settles. Err is set when the operation degraded or was rejected; Appt
// still carries the best-known state in that case.
type LoadedMsg struct {
	Appt *model.Appointment
	Err  error
}

// CancelSubmittedMsg asks the parent to cancel the appointment.
type CancelSubmittedMsg struct {
	ID     int
	Reason string
}

// RescheduleSubmittedMsg asks the parent to reschedule the appointment.
type RescheduleSubmittedMsg struct {
	ID     int
	Date   string
	Time   string
	Reason string
}

// NoteSubmittedMsg asks the parent to append a note.
type NoteSubmittedMsg struct {
	ID      int
	Content string
}

// AdvanceSubmittedMsg asks the parent to move the appointment to target.
type AdvanceSubmittedMsg struct {
	ID     int
	Target string
}

// mode tracks which surface the detail view is showing.
type mode int

const (
	modeView mode = iota
	modeCancelForm
	modeRescheduleForm
	modeNoteForm
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	reason  string
	date    string
	timeOfD string
	content string
}

// Model is the appointment detail view.
type Model struct {
	appt     *model.Appointment
	viewport viewport.Model
	keys     *keys.KeyMap

	mode mode
	form *huh.Form
	fb   *formBindings

	errMessage string
	pending    bool
	loading    bool
	width      int
	height     int
}

// New creates a new appointment detail model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		fb:       &formBindings{},
		width:    width,
		height:   height,
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
		m.appt = nil
		m.errMessage = ""
		m.mode = modeView
		m.form = nil
	}
}

// CurrentID returns the displayed appointment's ID, or 0 before load.
func (m Model) CurrentID() int {
	if m.appt == nil {
		return 0
	}
	return m.appt.ID
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.pending = false
		if msg.Appt != nil {
			m.appt = msg.Appt
		}
		m.errMessage = ""
		if msg.Err != nil {
			m.errMessage = userMessage(msg.Err)
		}
		// A rejected form submission returns to the form with the
		// server's explanation; anything else lands on the record.
		if msg.Err == nil || m.mode == modeView {
			m.mode = modeView
			m.form = nil
		}
		m.viewport.SetContent(m.renderContent())
		if msg.Err == nil {
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeView {
			return m.updateForm(msg)
		}
		return m.handleViewKeys(msg)
	}

	if m.mode != modeView {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleViewKeys processes keys while showing the record.
func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Cancel):
		if m.canDo(status.ActionCancel) {
			return m.openCancelForm()
		}

	case key.Matches(msg, m.keys.Reschedule):
		if m.canDo(status.ActionReschedule) {
			return m.openRescheduleForm()
		}

	case key.Matches(msg, m.keys.AddNote):
		if m.appt != nil && !m.pending {
			return m.openNoteForm()
		}

	case key.Matches(msg, m.keys.Advance):
		if target, ok := m.advanceTarget(); ok && !m.pending {
			m.pending = true
			id := m.appt.ID
			return m, func() tea.Msg {
				return AdvanceSubmittedMsg{ID: id, Target: target}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// updateForm drives the active huh form.
func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeView
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submitForm()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeView
		m.form = nil
		m.errMessage = ""
		return m, nil
	}

	return m, cmd
}

// submitForm dispatches the completed form to the parent. The view stays
// pending until the parent reports the outcome via LoadedMsg.
func (m Model) submitForm() (Model, tea.Cmd) {
	id := m.appt.ID
	m.pending = true

	switch m.mode {
	case modeCancelForm:
		reason := m.fb.reason
		return m, func() tea.Msg {
			return CancelSubmittedMsg{ID: id, Reason: reason}
		}
	case modeRescheduleForm:
		date, timeOfD, reason := m.fb.date, m.fb.timeOfD, m.fb.reason
		return m, func() tea.Msg {
			return RescheduleSubmittedMsg{ID: id, Date: date, Time: timeOfD, Reason: reason}
		}
	case modeNoteForm:
		content := m.fb.content
		return m, func() tea.Msg {
			return NoteSubmittedMsg{ID: id, Content: content}
		}
	}

	m.mode = modeView
	m.form = nil
	return m, nil
}

func (m Model) openCancelForm() (Model, tea.Cmd) {
	m.mode = modeCancelForm
	m.fb.reason = ""
	m.errMessage = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Cancellation reason").
				Placeholder("Why is this appointment being cancelled?").
				Value(&m.fb.reason),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m, m.form.Init()
}

func (m Model) openRescheduleForm() (Model, tea.Cmd) {
	m.mode = modeRescheduleForm
	m.fb.date = m.appt.ScheduledDate
	m.fb.timeOfD = m.appt.ScheduledTime
	m.fb.reason = ""
	m.errMessage = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.date),
			huh.NewInput().
				Title("New time").
				Placeholder("HH:MM").
				Value(&m.fb.timeOfD),
			huh.NewText().
				Title("Reason").
				Placeholder("Why is this appointment moving?").
				Value(&m.fb.reason),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m, m.form.Init()
}

func (m Model) openNoteForm() (Model, tea.Cmd) {
	m.mode = modeNoteForm
	m.fb.content = ""
	m.errMessage = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Note").
				Placeholder("Add a note for this appointment...").
				Value(&m.fb.content),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m, m.form.Init()
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 8 {
		h = 8
	}
	return h
}

// canDo reports whether the appointment's current status admits action.
func (m Model) canDo(a status.Action) bool {
	if m.appt == nil || m.pending {
		return false
	}
	for _, allowed := range status.AllowedActions(m.appt.Status.Code) {
		if allowed == a {
			return true
		}
	}
	return false
}

// advanceTarget resolves the single forward status transition available
// from the current status, if any.
func (m Model) advanceTarget() (string, bool) {
	if m.appt == nil {
		return "", false
	}
	for _, a := range []status.Action{
		status.ActionConfirm, status.ActionStart, status.ActionComplete,
	} {
		if next, err := status.Next(m.appt.Status.Code, a); err == nil {
			return next, true
		}
	}
	return "", false
}

// ActionHints returns the status-bar hint line for the current record.
func (m Model) ActionHints() string {
	if m.mode != modeView {
		return "enter submit | esc cancel"
	}
	if m.appt == nil {
		return "esc back"
	}

	hints := []string{"esc back", "j/k scroll", "o note"}
	for _, a := range status.AllowedActions(m.appt.Status.Code) {
		switch a {
		case status.ActionConfirm:
			hints = append(hints, "s confirm")
		case status.ActionStart:
			hints = append(hints, "s start")
		case status.ActionComplete:
			hints = append(hints, "s complete")
		case status.ActionCancel:
			hints = append(hints, "x cancel")
		case status.ActionReschedule:
			hints = append(hints, "e reschedule")
		}
	}
	return strings.Join(hints, " | ")
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading appointment...")
	}

	if m.mode != modeView && m.form != nil {
		title := map[mode]string{
			modeCancelForm:     "Cancel Appointment",
			modeRescheduleForm: "Reschedule Appointment",
			modeNoteForm:       "Add Note",
		}[m.mode]

		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite).
			MarginBottom(1)

		parts := []string{titleStyle.Render(title)}
		if m.errMessage != "" {
			parts = append(parts, lipgloss.NewStyle().
				Foreground(theme.ColorRed).
				Render(m.errMessage))
		}
		parts = append(parts, m.form.View())

		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	}

	return m.viewport.View()
}

// renderContent builds the scrollable record body.
func (m Model) renderContent() string {
	if m.appt == nil {
		return ""
	}
	a := m.appt

	var b strings.Builder

	disp := status.AppointmentDisplay(a.Status.Code)
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
			Render(a.Service.Name),
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
	b.WriteString(fmt.Sprintf("%s %s at %s\n",
		label.Render("Scheduled:"), a.ScheduledDate, a.ScheduledTime))
	if a.Service.Price != "" {
		b.WriteString(fmt.Sprintf("%s %s (%d min)\n",
			label.Render("Price:"), a.Service.Price,
			a.Service.EstimatedDurationMinutes))
	}

	if a.Address != nil {
		b.WriteString(fmt.Sprintf("%s %s",
			label.Render("Address:"), a.Address.AddressLine1))
		if a.Address.AddressLine2 != "" {
			b.WriteString(", " + a.Address.AddressLine2)
		}
		b.WriteString(fmt.Sprintf(", %s %s %s\n",
			a.Address.City, a.Address.State, a.Address.Postcode))
	}

	if len(a.Technicians) > 0 {
		b.WriteString("\n" + sectionTitle("Technicians") + "\n")
		for _, t := range a.Technicians {
			b.WriteString(fmt.Sprintf("  %s (%s)\n", t.Staff.Name, t.Staff.Role))
		}
	}

	if len(a.Notes) > 0 {
		b.WriteString("\n" + sectionTitle("Notes") + "\n")
		for _, n := range a.Notes {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				label.Render(n.AddedBy.Name), n.Content))
		}
	}

	if len(a.History) > 0 {
		b.WriteString("\n" + sectionTitle("Activity") + "\n")
		for _, e := range activity.Render(a.History) {
			when := ""
			if !e.OccurredAt.IsZero() {
				when = e.OccurredAt.Format("Jan 2 15:04")
			}
			line := fmt.Sprintf("  %s %s  %s %s",
				e.Icon, e.Label, e.Actor, label.Render(when))
			if e.Entry.Comment != "" {
				line += "\n      " + theme.HelpStyle.Render(e.Entry.Comment)
			}
			b.WriteString(line + "\n")
		}
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
}

func sectionTitle(s string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		Render(s)
}

// userMessage renders an error in end-user terms. Field validation
// failures list the offending fields; everything else passes through.
func userMessage(err error) string {
	var verr *controller.ValidationError
	if errors.As(err, &verr) {
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, verr.Fields[name])
		}
		return strings.Join(parts, " ")
	}
	var transErr *status.InvalidTransitionError
	if errors.As(err, &transErr) {
		return transErr.Error()
	}
	return err.Error()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.appt != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
