// Package notify holds the process-wide notification store shared by the
// badge indicator and the drawer list. Both observe the same state; a
// badge poll can never silently regress a read flag the drawer just set.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
)

// Service is the remote notification surface the store syncs against.
type Service interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Cache persists notifications between sessions so the drawer has content
// before the first poll completes. Cache write failures are logged and
// swallowed; the in-memory state is authoritative within a session.
type Cache interface {
	ReplaceNotifications(ctx context.Context, notifs []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Store keeps notifications keyed by ID with an incrementally maintained
// unread count. Methods are safe for concurrent use; Bubble Tea commands
// run in goroutines.
type Store struct {
	mu      sync.Mutex
	svc     Service
	cache   Cache
	records map[int]model.Notification
	order   []int

	// readOverrides remembers IDs marked read this session so a load
	// racing a markRead cannot flip them back. Within a session the read
	// flag only moves false -> true.
	readOverrides map[int]bool

	unread int
}

// NewStore creates an empty notification store backed by svc.
func NewStore(svc Service) *Store {
	return &Store{
		svc:           svc,
		records:       make(map[int]model.Notification),
		readOverrides: make(map[int]bool),
	}
}

// WithCache attaches a persistence layer and seeds the store from it, so
// the drawer and badge render cached notifications before the first poll.
func (s *Store) WithCache(ctx context.Context, cache Cache) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = cache

	cached, err := cache.GetNotifications(ctx)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("seeding notifications from cache")
		return s
	}
	s.replaceLocked(cached)
	return s
}

// replaceLocked swaps the held set for notifications, re-applying session
// read overrides. Caller holds s.mu.
func (s *Store) replaceLocked(notifications []model.Notification) {
	s.records = make(map[int]model.Notification, len(notifications))
	s.order = s.order[:0]
	s.unread = 0

	for _, n := range notifications {
		if s.readOverrides[n.ID] {
			n.Read = true
		}
		s.records[n.ID] = n
		s.order = append(s.order, n.ID)
		if !n.Read {
			s.unread++
		}
	}
}

func (s *Store) persist(ctx context.Context, notifications []model.Notification) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReplaceNotifications(ctx, notifications); err != nil {
		logging.Logger.Warn().Err(err).Msg("caching notifications")
	}
}

// Load replaces the store's contents from the remote source. It is
// idempotent and safe to call concurrently with a pending mark-read: the
// last load wins, with session-local read overrides re-applied on top of
// whatever the server returned.
func (s *Store) Load(ctx context.Context) error {
	notifications, err := s.svc.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("loading notifications: %w", err)
	}

	s.mu.Lock()
	s.replaceLocked(notifications)
	s.mu.Unlock()

	s.persist(ctx, notifications)
	return nil
}

// MarkRead flags one notification as read, applying the change locally
// before the remote call returns. An absent ID is a no-op, not an error:
// a concurrent load may have dropped the record. On remote failure the
// local flip is reverted and the error surfaced.
func (s *Store) MarkRead(ctx context.Context, id int) error {
	s.mu.Lock()
	n, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	alreadyRead := n.Read
	if !alreadyRead {
		n.Read = true
		s.records[id] = n
		s.readOverrides[id] = true
		s.unread--
	}
	s.mu.Unlock()

	if alreadyRead {
		return nil
	}

	if err := s.svc.MarkNotificationRead(ctx, id); err != nil {
		s.mu.Lock()
		if n, ok := s.records[id]; ok {
			n.Read = false
			s.records[id] = n
			s.unread++
		}
		delete(s.readOverrides, id)
		s.mu.Unlock()
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.MarkNotificationRead(ctx, id); err != nil {
			logging.Logger.Warn().Err(err).Int("id", id).Msg("caching read flag")
		}
	}

	return nil
}

// MarkAllRead flags every held notification as read. The remote call goes
// first: either it succeeds and all local records flip, or it fails and
// none do.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if err := s.svc.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}

	s.mu.Lock()
	for id, n := range s.records {
		if !n.Read {
			n.Read = true
			s.records[id] = n
		}
		s.readOverrides[id] = true
	}
	s.unread = 0
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.MarkAllNotificationsRead(ctx); err != nil {
			logging.Logger.Warn().Err(err).Msg("caching read flags")
		}
	}

	return nil
}

// UnreadCount returns the number of unread notifications. O(1); the
// count is maintained incrementally for badge rendering.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// All returns the held notifications in server order.
func (s *Store) All() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, 0, len(s.order))
	for _, id := range s.order {
		if n, ok := s.records[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Get returns one notification by ID.
func (s *Store) Get(id int) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[id]
	return n, ok
}
