package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/model"
)

// fakeService is an in-memory notification backend for store tests.
type fakeService struct {
	notifications []model.Notification
	listErr       error
	markReadErr   error
	markAllErr    error

	markReadCalls []int
	markAllCalls  int
}

func (f *fakeService) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out, nil
}

func (f *fakeService) MarkNotificationRead(ctx context.Context, id int) error {
	f.markReadCalls = append(f.markReadCalls, id)
	return f.markReadErr
}

func (f *fakeService) MarkAllNotificationsRead(ctx context.Context) error {
	f.markAllCalls++
	return f.markAllErr
}

func tenNotifications() []model.Notification {
	out := make([]model.Notification, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, model.Notification{
			ID:      i,
			Title:   fmt.Sprintf("Notification %d", i),
			Message: "details",
			Type:    model.NotificationTypeSystem,
			Read:    i > 3, // 1..3 unread
		})
	}
	return out
}

func TestLoad_ReplacesContentsAndCountsUnread(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)

	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, 3, s.UnreadCount())
	assert.Len(t, s.All(), 10)

	// Idempotent: a second load lands in the same state.
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 3, s.UnreadCount())
	assert.Len(t, s.All(), 10)
}

func TestMarkRead_DecrementsUnread(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.MarkRead(context.Background(), 2))

	assert.Equal(t, 2, s.UnreadCount())
	n, ok := s.Get(2)
	require.True(t, ok)
	assert.True(t, n.Read)
	assert.Equal(t, []int{2}, svc.markReadCalls)
}

func TestMarkRead_AlreadyReadSkipsRemoteCall(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.MarkRead(context.Background(), 9))

	assert.Equal(t, 3, s.UnreadCount())
	assert.Empty(t, svc.markReadCalls)
}

func TestMarkRead_AbsentIDIsNoOp(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	// The record may have been cleared by a concurrent load; not an error.
	require.NoError(t, s.MarkRead(context.Background(), 999))

	assert.Equal(t, 3, s.UnreadCount())
	assert.Empty(t, svc.markReadCalls)
}

func TestMarkRead_RemoteFailureRevertsLocalFlip(t *testing.T) {
	svc := &fakeService{
		notifications: tenNotifications(),
		markReadErr:   errors.New("boom"),
	}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	err := s.MarkRead(context.Background(), 1)

	require.Error(t, err)
	assert.Equal(t, 3, s.UnreadCount())
	n, _ := s.Get(1)
	assert.False(t, n.Read)
}

func TestLoad_DoesNotRegressSessionReadFlags(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.MarkRead(context.Background(), 1))
	require.Equal(t, 2, s.UnreadCount())

	// The next poll returns the record still unread (the server has not
	// caught up, or the poll raced the mark-read). The session-local
	// read flag must survive.
	require.NoError(t, s.Load(context.Background()))

	n, ok := s.Get(1)
	require.True(t, ok)
	assert.True(t, n.Read)
	assert.Equal(t, 2, s.UnreadCount())
}

func TestMarkAllRead_FlipsEverything(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.MarkAllRead(context.Background()))

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.All() {
		assert.True(t, n.Read, "notification %d still unread", n.ID)
	}
	assert.Equal(t, 1, svc.markAllCalls)
}

func TestMarkAllRead_RemoteFailureChangesNothing(t *testing.T) {
	svc := &fakeService{
		notifications: tenNotifications(),
		markAllErr:    errors.New("boom"),
	}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	err := s.MarkAllRead(context.Background())

	require.Error(t, err)
	assert.Equal(t, 3, s.UnreadCount())
}

func TestLoad_FailureKeepsStaleState(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	s := NewStore(svc)
	require.NoError(t, s.Load(context.Background()))

	svc.listErr = errors.New("network down")
	err := s.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, 3, s.UnreadCount())
	assert.Len(t, s.All(), 10)
}

// fakeCache records persistence calls for cache wiring tests.
type fakeCache struct {
	stored       []model.Notification
	getErr       error
	replaceCalls int
	readIDs      []int
	allCalls     int
}

func (f *fakeCache) ReplaceNotifications(ctx context.Context, notifs []model.Notification) error {
	f.replaceCalls++
	f.stored = make([]model.Notification, len(notifs))
	copy(f.stored, notifs)
	return nil
}

func (f *fakeCache) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]model.Notification, len(f.stored))
	copy(out, f.stored)
	return out, nil
}

func (f *fakeCache) MarkNotificationRead(ctx context.Context, id int) error {
	f.readIDs = append(f.readIDs, id)
	return nil
}

func (f *fakeCache) MarkAllNotificationsRead(ctx context.Context) error {
	f.allCalls++
	return nil
}

func TestWithCache_SeedsBeforeFirstLoad(t *testing.T) {
	cache := &fakeCache{stored: tenNotifications()}
	s := NewStore(&fakeService{}).WithCache(context.Background(), cache)

	assert.Equal(t, 3, s.UnreadCount())
	assert.Len(t, s.All(), 10)
}

func TestWithCache_SeedFailureLeavesStoreEmpty(t *testing.T) {
	cache := &fakeCache{getErr: errors.New("disk gone")}
	s := NewStore(&fakeService{}).WithCache(context.Background(), cache)

	assert.Equal(t, 0, s.UnreadCount())
	assert.Empty(t, s.All())
}

func TestWithCache_LoadAndMarksWriteThrough(t *testing.T) {
	svc := &fakeService{notifications: tenNotifications()}
	cache := &fakeCache{}
	s := NewStore(svc).WithCache(context.Background(), cache)

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, cache.replaceCalls)
	assert.Len(t, cache.stored, 10)

	require.NoError(t, s.MarkRead(context.Background(), 1))
	assert.Equal(t, []int{1}, cache.readIDs)

	require.NoError(t, s.MarkAllRead(context.Background()))
	assert.Equal(t, 1, cache.allCalls)
}
