package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pestguard/fieldops/internal/api"
	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/store"
)

// Feed identifies one server listing the poller keeps cached locally.
type Feed string

const (
	FeedAppointments Feed = "appointments"
	FeedJobs         Feed = "jobs"
	FeedInvoices     Feed = "invoices"
)

// SyncState represents the current state of a feed sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single feed.
type SyncStatus struct {
	Feed     Feed
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a feed sync completes.
type SyncResultMsg struct {
	Feed      Feed
	Error     error
	AuthError *AuthErrorMsg

	// NewCount is how many records in this cycle were not cached before.
	NewCount int
}

// AuthErrorMsg is a tea.Msg sent when the server rejects our credentials.
type AuthErrorMsg struct {
	Feed    Feed
	Message string
}

// fetchTimeout is the maximum time allowed for a single fetch cycle.
const fetchTimeout = 30 * time.Second

// feedEntry holds one registered feed: its refresh interval and the
// fetch-and-replace cycle that refreshes its cache table. The cycle
// returns how many fetched records were previously unseen.
type feedEntry struct {
	feed     Feed
	interval time.Duration
	cycle    func(ctx context.Context) (int, error)
}

// Poller keeps the local cache tracking the server listings. Each feed
// polls on its own goroutine; results surface to the Bubble Tea runtime
// as SyncResultMsg values.
type Poller struct {
	client *api.Client
	store  store.Store

	feeds     []feedEntry
	statuses  map[Feed]*SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan Feed
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller wiring the given API client to the local cache.
// appointmentInterval drives the appointment and job feeds; invoices
// refresh at four times that interval since billing moves slowly.
func New(client *api.Client, s store.Store, appointmentInterval time.Duration) *Poller {
	if appointmentInterval <= 0 {
		appointmentInterval = 120 * time.Second
	}

	p := &Poller{
		client:    client,
		store:     s,
		statuses:  make(map[Feed]*SyncStatus),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan Feed, 16),
		stopCh:    make(chan struct{}),
	}

	p.register(FeedAppointments, appointmentInterval, p.syncAppointments)
	p.register(FeedJobs, appointmentInterval, p.syncJobs)
	p.register(FeedInvoices, 4*appointmentInterval, p.syncInvoices)

	return p
}

func (p *Poller) register(feed Feed, interval time.Duration, cycle func(ctx context.Context) (int, error)) {
	p.feeds = append(p.feeds, feedEntry{feed: feed, interval: interval, cycle: cycle})
	p.statuses[feed] = &SyncStatus{Feed: feed, State: SyncIdle}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	for _, entry := range p.feeds {
		go p.pollFeed(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of every feed.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	feeds := make([]feedEntry, len(p.feeds))
	copy(feeds, p.feeds)
	p.mu.Unlock()

	for _, entry := range feeds {
		select {
		case p.triggerCh <- entry.feed:
		default:
			// Channel full; skip to avoid blocking
		}
	}

	return nil
}

// RefreshFeed triggers an immediate poll of a single feed.
func (p *Poller) RefreshFeed(feed Feed) tea.Cmd {
	select {
	case p.triggerCh <- feed:
	default:
	}
	return nil
}

// GetStatuses returns the current sync status of every feed.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollFeed runs the polling loop for a single feed.
func (p *Poller) pollFeed(entry feedEntry) {
	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	// Initial fetch immediately so the UI has data at startup.
	p.runCycle(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runCycle(entry)
		case triggered := <-p.triggerCh:
			if triggered == entry.feed {
				p.runCycle(entry)
			}
		}
	}
}

// runCycle performs one fetch-and-replace cycle for a feed and sends a
// SyncResultMsg on the result channel.
func (p *Poller) runCycle(entry feedEntry) {
	p.setStatus(entry.feed, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	newCount, err := entry.cycle(ctx)
	if err != nil {
		p.setStatus(entry.feed, SyncError, err)
		logging.Logger.Warn().
			Str("feed", string(entry.feed)).
			Err(err).
			Msg("feed sync failed, cache kept stale")

		if api.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				Feed:  entry.feed,
				Error: err,
				AuthError: &AuthErrorMsg{
					Feed: entry.feed,
					Message: fmt.Sprintf(
						"%s: session expired. Press 'c' to sign in again.",
						entry.feed,
					),
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{Feed: entry.feed, Error: err})
		return
	}

	p.setStatus(entry.feed, SyncIdle, nil)
	p.sendResult(SyncResultMsg{Feed: entry.feed, NewCount: newCount})
}

// syncAppointments fetches the appointment listing and replaces the
// cached set, reporting how many IDs were previously unseen.
func (p *Poller) syncAppointments(ctx context.Context) (int, error) {
	appts, err := p.client.ListAppointments(ctx, "")
	if err != nil {
		return 0, err
	}

	existing, _ := p.store.GetAppointments(ctx, store.AppointmentFilter{})
	known := make(map[int]bool, len(existing))
	for _, a := range existing {
		known[a.ID] = true
	}
	newCount := 0
	for _, a := range appts {
		if !known[a.ID] {
			newCount++
		}
	}

	if err := p.store.ReplaceAppointments(ctx, appts); err != nil {
		return 0, err
	}
	return newCount, nil
}

// syncJobs fetches the technician job listing and replaces the cached set.
func (p *Poller) syncJobs(ctx context.Context) (int, error) {
	jobs, err := p.client.ListJobs(ctx)
	if err != nil {
		return 0, err
	}

	existing, _ := p.store.GetJobs(ctx, store.JobFilter{})
	known := make(map[int]bool, len(existing))
	for _, j := range existing {
		known[j.ID] = true
	}
	newCount := 0
	for _, j := range jobs {
		if !known[j.ID] {
			newCount++
		}
	}

	if err := p.store.ReplaceJobs(ctx, jobs); err != nil {
		return 0, err
	}
	return newCount, nil
}

// syncInvoices fetches the invoice listing and replaces the cached set.
func (p *Poller) syncInvoices(ctx context.Context) (int, error) {
	invoices, err := p.client.ListInvoices(ctx)
	if err != nil {
		return 0, err
	}

	existing, _ := p.store.GetInvoices(ctx)
	known := make(map[int]bool, len(existing))
	for _, inv := range existing {
		known[inv.ID] = true
	}
	newCount := 0
	for _, inv := range invoices {
		if !known[inv.ID] {
			newCount++
		}
	}

	if err := p.store.ReplaceInvoices(ctx, invoices); err != nil {
		return 0, err
	}
	return newCount, nil
}

// setStatus updates the sync status for a feed.
func (p *Poller) setStatus(feed Feed, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[feed]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
