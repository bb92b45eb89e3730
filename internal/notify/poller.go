package notify

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pestguard/fieldops/internal/logging"
)

// RefreshedMsg is a tea.Msg sent after each notification poll completes.
// Err is set when the poll degraded to stale local state.
type RefreshedMsg struct {
	Unread int
	Err    error
}

// pollTimeout bounds a single notification list fetch.
const pollTimeout = 30 * time.Second

// Poller refreshes the notification store on an interval while the UI is
// mounted. Stop must be called on teardown so the ticker goroutine does
// not outlive the view.
type Poller struct {
	store    *Store
	interval time.Duration

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	triggerCh chan struct{}
	resultCh  chan RefreshedMsg
}

// NewPoller creates a poller refreshing store every interval. An interval
// of zero or less defaults to 60 seconds.
func NewPoller(store *Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		store:     store,
		interval:  interval,
		stopCh:    make(chan struct{}),
		triggerCh: make(chan struct{}, 1),
		resultCh:  make(chan RefreshedMsg, 16),
	}
}

// Start launches the polling goroutine and returns a command that waits
// for the first result. Calling Start twice is a no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.run()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh requests an immediate poll outside the regular interval.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// WaitForNextResult returns a command that waits for the next poll
// result. Call it after handling a RefreshedMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

func (p *Poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	err := p.store.Load(ctx)
	if err != nil {
		// Read failures degrade to the stale local state; the drawer
		// keeps whatever it had.
		logging.Logger.Warn().Err(err).Msg("notification poll failed")
	}

	p.sendResult(RefreshedMsg{Unread: p.store.UnreadCount(), Err: err})
}

func (p *Poller) sendResult(msg RefreshedMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}
