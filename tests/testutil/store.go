package testutil

import (
	"context"
	"testing"

	"github.com/pestguard/fieldops/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	// Touch the appointment table so a broken migration fails here
	// rather than in the first cache write of the test body.
	if _, err := s.GetAppointments(context.Background(), store.AppointmentFilter{}); err != nil {
		t.Fatalf("fresh store not queryable: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
