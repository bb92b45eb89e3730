package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/api"
	"github.com/pestguard/fieldops/internal/store"
	"github.com/pestguard/fieldops/tests/testutil"
)

func newTestPoller(t *testing.T, handler http.Handler) (*Poller, store.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := testutil.NewTestStore(t)
	client := api.NewClient(srv.URL, func() (string, error) { return "tok", nil }, 5*time.Second)
	return New(client, s, time.Minute), s
}

func (p *Poller) entryFor(t *testing.T, feed Feed) feedEntry {
	t.Helper()
	for _, e := range p.feeds {
		if e.feed == feed {
			return e
		}
	}
	t.Fatalf("feed %s not registered", feed)
	return feedEntry{}
}

func drainResult(t *testing.T, p *Poller) SyncResultMsg {
	t.Helper()
	select {
	case msg := <-p.resultCh:
		return msg
	default:
		t.Fatal("no sync result on channel")
		return SyncResultMsg{}
	}
}

func TestRunCycle_ReplacesCacheAndCountsNewRecords(t *testing.T) {
	p, s := newTestPoller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customer/appointments", r.URL.Path)
		w.Write([]byte(`{"data": [
			{"id": 1, "status": {"code": "pending", "name": "Pending"}},
			{"id": 2, "status": {"code": "confirmed", "name": "Confirmed"}}
		]}`))
	}))

	p.runCycle(p.entryFor(t, FeedAppointments))

	msg := drainResult(t, p)
	require.NoError(t, msg.Error)
	assert.Equal(t, FeedAppointments, msg.Feed)
	assert.Equal(t, 2, msg.NewCount)

	cached, err := s.GetAppointments(context.Background(), store.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	// Same payload again: nothing unseen.
	p.runCycle(p.entryFor(t, FeedAppointments))
	assert.Equal(t, 0, drainResult(t, p).NewCount)
}

func TestRunCycle_FetchFailureKeepsCacheStale(t *testing.T) {
	var failing atomic.Bool
	p, s := newTestPoller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "boom"}`))
			return
		}
		w.Write([]byte(`{"data": [{"id": 9, "title": "Rodent Inspection", "status": "pending"}]}`))
	}))

	entry := p.entryFor(t, FeedJobs)
	p.runCycle(entry)
	require.NoError(t, drainResult(t, p).Error)

	failing.Store(true)
	p.runCycle(entry)

	msg := drainResult(t, p)
	require.Error(t, msg.Error)
	assert.Nil(t, msg.AuthError)

	var st SyncStatus
	for _, cand := range p.GetStatuses() {
		if cand.Feed == FeedJobs {
			st = cand
		}
	}
	assert.Equal(t, SyncError, st.State)

	cached, err := s.GetJobs(context.Background(), store.JobFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestRunCycle_AuthErrorSurfacedSeparately(t *testing.T) {
	p, _ := newTestPoller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "token expired"}`))
	}))

	p.runCycle(p.entryFor(t, FeedInvoices))

	msg := drainResult(t, p)
	require.Error(t, msg.Error)
	require.NotNil(t, msg.AuthError)
	assert.Equal(t, FeedInvoices, msg.AuthError.Feed)
	assert.Contains(t, msg.AuthError.Message, "session expired")
}
