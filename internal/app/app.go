package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pestguard/fieldops/internal/api"
	"github.com/pestguard/fieldops/internal/controller"
	"github.com/pestguard/fieldops/internal/keys"
	"github.com/pestguard/fieldops/internal/notify"
	"github.com/pestguard/fieldops/internal/store"
	appsync "github.com/pestguard/fieldops/internal/sync"
	"github.com/pestguard/fieldops/internal/ui"
	"github.com/pestguard/fieldops/internal/ui/appointmentdetail"
	"github.com/pestguard/fieldops/internal/ui/drawer"
	helpview "github.com/pestguard/fieldops/internal/ui/help"
	"github.com/pestguard/fieldops/internal/ui/invoicelist"
	"github.com/pestguard/fieldops/internal/ui/jobboard"
	"github.com/pestguard/fieldops/internal/ui/jobdetail"
	"github.com/pestguard/fieldops/internal/ui/schedule"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewSchedule ViewState = iota
	ViewAppointmentDetail
	ViewJobs
	ViewJobDetail
	ViewInvoices
	ViewNotifications
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the background sync machinery.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	store  *store.SQLiteStore
	client *api.Client
	keys   *keys.KeyMap

	scheduleView schedule.Model
	apptDetail   appointmentdetail.Model
	jobBoard     jobboard.Model
	jobDetail    jobdetail.Model
	invoiceView  invoicelist.Model
	drawerView   drawer.Model
	helpView     helpview.Model

	poller      *appsync.Poller
	notifStore  *notify.Store
	notifPoller *notify.Poller

	// Per-record controllers, created when a detail view opens and
	// closed when it leaves, so responses for a dismissed screen land
	// nowhere.
	apptCtrl *controller.Appointment
	jobCtrl  *controller.Job

	ready            bool
	unreadCount      int
	authErrorMessage string
}

// New creates the root application model. appointmentInterval and
// notificationInterval come from the sync section of the config file.
func New(
	s *store.SQLiteStore,
	client *api.Client,
	appointmentInterval time.Duration,
	notificationInterval time.Duration,
) Model {
	k := keys.DefaultKeyMap()
	notifStore := notify.NewStore(client).WithCache(context.Background(), s)

	return Model{
		currentView:  ViewSchedule,
		store:        s,
		client:       client,
		keys:         k,
		scheduleView: schedule.New(s, k, 80, 24),
		apptDetail:   appointmentdetail.New(k, 80, 24),
		jobBoard:     jobboard.New(s, k, 80, 24),
		jobDetail:    jobdetail.New(k, 80, 24),
		invoiceView:  invoicelist.New(s, k, 80, 24),
		drawerView:   drawer.New(notifStore, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		poller:       appsync.New(client, s, appointmentInterval),
		notifStore:   notifStore,
		notifPoller:  notify.NewPoller(notifStore, notificationInterval),
	}
}

// Init loads the cached lists and starts both pollers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.scheduleView.Init(),
		m.jobBoard.Init(),
		m.invoiceView.Init(),
		m.poller.Start(),
		m.notifPoller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.scheduleView.SetSize(w, h)
		m.apptDetail.SetSize(w, h)
		m.jobBoard.SetSize(w, h)
		m.jobDetail.SetSize(w, h)
		m.invoiceView.SetSize(w, h)
		m.drawerView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}

		// Reload whichever list the completed feed backs.
		var reload tea.Cmd
		switch msg.Feed {
		case appsync.FeedAppointments:
			reload = m.scheduleView.LoadAppointments()
		case appsync.FeedJobs:
			reload = m.jobBoard.LoadJobs()
		case appsync.FeedInvoices:
			reload = m.invoiceView.LoadInvoices()
		}
		return m, tea.Batch(reload, m.poller.WaitForNextResult())

	case notify.RefreshedMsg:
		m.unreadCount = msg.Unread
		cmd := m.drawerView.Reload()
		return m, tea.Batch(cmd, m.notifPoller.WaitForNextResult())

	case schedule.SelectedAppointmentMsg:
		return m.openAppointment(msg.ID)

	case jobboard.SelectedJobMsg:
		return m.openJob(msg.ID)

	case appointmentdetail.BackMsg:
		if m.apptCtrl != nil {
			m.apptCtrl.Close()
			m.apptCtrl = nil
		}
		m.currentView = ViewSchedule
		return m, m.scheduleView.LoadAppointments()

	case appointmentdetail.CancelSubmittedMsg:
		ctrl := m.apptCtrl
		return m, func() tea.Msg {
			appt, err := ctrl.Cancel(context.Background(), msg.Reason)
			return appointmentdetail.LoadedMsg{Appt: appt, Err: err}
		}

	case appointmentdetail.RescheduleSubmittedMsg:
		ctrl := m.apptCtrl
		return m, func() tea.Msg {
			appt, err := ctrl.Reschedule(
				context.Background(), msg.Date, msg.Time, msg.Reason,
			)
			return appointmentdetail.LoadedMsg{Appt: appt, Err: err}
		}

	case appointmentdetail.NoteSubmittedMsg:
		ctrl := m.apptCtrl
		return m, func() tea.Msg {
			appt, err := ctrl.AddNote(context.Background(), msg.Content)
			return appointmentdetail.LoadedMsg{Appt: appt, Err: err}
		}

	case appointmentdetail.AdvanceSubmittedMsg:
		ctrl := m.apptCtrl
		return m, func() tea.Msg {
			appt, err := ctrl.UpdateStatus(context.Background(), msg.Target)
			return appointmentdetail.LoadedMsg{Appt: appt, Err: err}
		}

	case appointmentdetail.LoadedMsg:
		var cmd tea.Cmd
		m.apptDetail, cmd = m.apptDetail.Update(msg)
		return m, cmd

	case jobdetail.BackMsg:
		if m.jobCtrl != nil {
			m.jobCtrl.Close()
			m.jobCtrl = nil
		}
		m.currentView = ViewJobs
		return m, m.jobBoard.LoadJobs()

	case jobdetail.AdvanceSubmittedMsg:
		ctrl := m.jobCtrl
		return m, func() tea.Msg {
			job, err := ctrl.UpdateStatus(context.Background(), msg.Target)
			return jobdetail.LoadedMsg{Job: job, Err: err}
		}

	case jobdetail.NoteSubmittedMsg:
		ctrl := m.jobCtrl
		return m, func() tea.Msg {
			job, err := ctrl.AddNote(context.Background(), msg.Content)
			return jobdetail.LoadedMsg{Job: job, Err: err}
		}

	case jobdetail.LoadedMsg:
		var cmd tea.Cmd
		m.jobDetail, cmd = m.jobDetail.Update(msg)
		return m, cmd

	case drawer.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case drawer.MarkReadMsg:
		return m, m.markNotificationRead(msg.ID)

	case drawer.MarkAllReadMsg:
		return m, m.markAllNotificationsRead()

	case drawer.OpenJobMsg:
		return m.openJob(msg.JobID)

	case notifMutatedMsg:
		m.unreadCount = m.notifStore.UnreadCount()
		return m, m.drawerView.Reload()

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.atListView() {
				m.shutdown()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			if m.atListView() {
				m.previousView = m.currentView
				m.currentView = ViewHelp
				return m, nil
			}

		case "r":
			if m.atListView() {
				m.poller.RefreshAll()
				return m, m.notifPoller.Refresh()
			}

		case "n":
			if m.atListView() {
				m.previousView = m.currentView
				m.currentView = ViewNotifications
				return m, m.drawerView.Reload()
			}

		case "1":
			if m.atListView() {
				m.currentView = ViewSchedule
				return m, m.scheduleView.LoadAppointments()
			}

		case "2":
			if m.atListView() {
				m.currentView = ViewJobs
				return m, m.jobBoard.LoadJobs()
			}

		case "3":
			if m.atListView() {
				m.currentView = ViewInvoices
				return m, m.invoiceView.LoadInvoices()
			}
		}
	}

	return m.updateActiveView(msg)
}

// notifMutatedMsg reports a completed mark-read mutation.
type notifMutatedMsg struct {
	err error
}

// markNotificationRead flips one notification's read flag through the
// shared store; the store handles optimistic update and revert.
func (m Model) markNotificationRead(id int) tea.Cmd {
	s := m.notifStore
	return func() tea.Msg {
		err := s.MarkRead(context.Background(), id)
		return notifMutatedMsg{err: err}
	}
}

func (m Model) markAllNotificationsRead() tea.Cmd {
	s := m.notifStore
	return func() tea.Msg {
		err := s.MarkAllRead(context.Background())
		return notifMutatedMsg{err: err}
	}
}

// openAppointment tears down any previous controller, creates one for
// the selected record, and loads it.
func (m Model) openAppointment(id int) (tea.Model, tea.Cmd) {
	if m.apptCtrl != nil {
		m.apptCtrl.Close()
	}
	m.apptCtrl = controller.NewAppointment(m.client, id)
	m.previousView = m.currentView
	m.currentView = ViewAppointmentDetail
	m.apptDetail.SetLoading(true)

	ctrl := m.apptCtrl
	return m, func() tea.Msg {
		appt, err := ctrl.Load(context.Background())
		return appointmentdetail.LoadedMsg{Appt: appt, Err: err}
	}
}

func (m Model) openJob(id int) (tea.Model, tea.Cmd) {
	if m.jobCtrl != nil {
		m.jobCtrl.Close()
	}
	m.jobCtrl = controller.NewJob(m.client, id)
	m.previousView = m.currentView
	m.currentView = ViewJobDetail
	m.jobDetail.SetLoading(true)

	ctrl := m.jobCtrl
	return m, func() tea.Msg {
		job, err := ctrl.Load(context.Background())
		return jobdetail.LoadedMsg{Job: job, Err: err}
	}
}

// atListView reports whether a top-level list view is active, where
// global navigation keys apply.
func (m Model) atListView() bool {
	switch m.currentView {
	case ViewSchedule, ViewJobs, ViewInvoices:
		return true
	}
	return false
}

// shutdown stops the background pollers and closes open controllers.
func (m *Model) shutdown() {
	m.poller.Stop()
	m.notifPoller.Stop()
	if m.apptCtrl != nil {
		m.apptCtrl.Close()
	}
	if m.jobCtrl != nil {
		m.jobCtrl.Close()
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewSchedule:
		m.scheduleView, cmd = m.scheduleView.Update(msg)
	case ViewAppointmentDetail:
		m.apptDetail, cmd = m.apptDetail.Update(msg)
	case ViewJobs:
		m.jobBoard, cmd = m.jobBoard.Update(msg)
	case ViewJobDetail:
		m.jobDetail, cmd = m.jobDetail.Update(msg)
	case ViewInvoices:
		m.invoiceView, cmd = m.invoiceView.Update(msg)
	case ViewNotifications:
		m.drawerView, cmd = m.drawerView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if m.unreadCount > 0 {
		badge = fmt.Sprintf("%d unread", m.unreadCount)
	}
	header := m.layout.RenderHeader("PestGuard FieldOps", badge, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSchedule:
		return m.scheduleView.View()
	case ViewAppointmentDetail:
		return m.apptDetail.View()
	case ViewJobs:
		return m.jobBoard.View()
	case ViewJobDetail:
		return m.jobDetail.View()
	case ViewInvoices:
		return m.invoiceView.View()
	case ViewNotifications:
		return m.drawerView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	statuses := m.poller.GetStatuses()

	running := 0
	var staleFeeds []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			staleFeeds = append(staleFeeds, string(s.Feed))
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if len(staleFeeds) > 0 {
		return "⚠ stale: " + joinNames(staleFeeds)
	}
	return "idle"
}

func joinNames(names []string) string {
	result := names[0]
	for i := 1; i < len(names); i++ {
		result += ", " + names[i]
	}
	return result
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.authErrorMessage != "" && m.atListView() {
		return m.authErrorMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewAppointmentDetail:
		return m.apptDetail.ActionHints()
	case ViewJobDetail:
		return m.jobDetail.ActionHints()
	case ViewNotifications:
		return "enter open/mark read | M mark all read | esc close"
	case ViewSchedule:
		if summary := m.scheduleView.FilterSummary(); summary != "" {
			return summary + " | esc clear"
		}
	case ViewJobs:
		if summary := m.jobBoard.FilterSummary(); summary != "" {
			return summary + " | esc clear"
		}
	}
	return "q quit | ? help | / search | tab filter | n notifications | 1 schedule | 2 jobs | 3 invoices"
}
