package activity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/model"
)

func sampleHistory() []model.ActivityLogEntry {
	return []model.ActivityLogEntry{
		{
			ID:         1,
			Action:     "created",
			OccurredAt: "2024-01-02T09:30:00Z",
			OccurredBy: &model.Actor{ID: 1, Name: "John Doe", Role: "Customer"},
		},
		{
			ID:         2,
			Action:     "technician_assigned",
			OccurredAt: "2024-01-02T10:15:00Z",
		},
		{
			ID:         3,
			Action:     "note_added",
			Comment:    "Carpenter ants in the basement area.",
			OccurredAt: "2024-01-03T11:45:00Z",
			OccurredBy: &model.Actor{ID: 3, Name: "Mike Johnson", Role: "Technician"},
		},
		{
			ID:         4,
			Action:     "status_changed",
			OccurredAt: "2024-01-04T13:00:00Z",
			Status:     &model.Status{Code: "in_progress", Name: "In Progress"},
		},
		{
			ID:         5,
			Action:     "completed",
			OccurredAt: "2024-01-05T15:00:00Z",
			OccurredBy: &model.Actor{ID: 3, Name: "Mike Johnson", Role: "Technician"},
		},
	}
}

func TestRender_SortsMostRecentFirst(t *testing.T) {
	rows := Render(sampleHistory())

	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		assert.False(t,
			rows[i].OccurredAt.After(rows[i-1].OccurredAt),
			"row %d out of order", i,
		)
	}
	assert.Equal(t, 5, rows[0].Entry.ID)
	assert.Equal(t, 1, rows[4].Entry.ID)
}

func TestRender_OrderIndependent(t *testing.T) {
	base := Render(sampleHistory())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := sampleHistory()
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		assert.Equal(t, base, Render(shuffled), "permutation %d diverged", i)
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	entries := sampleHistory()
	Render(entries)

	assert.Equal(t, sampleHistory(), entries)
}

func TestRender_ActionLabels(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"created", "Created"},
		{"rescheduled", "Rescheduled"},
		{"cancelled", "Cancelled"},
		{"completed", "Completed"},
		{"note_added", "Note Added"},
		{"technician_assigned", "Tech Assigned"},
		{"payment_received", "Payment Received"},
		{"status_changed", "Status Changed"},
		{"CREATED", "Created"}, // action tags match case-insensitively
		{"migrated_from_legacy", "Updated"},
		{"", "Updated"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			rows := Render([]model.ActivityLogEntry{
				{ID: 1, Action: tt.action, OccurredAt: "2024-01-01T00:00:00Z"},
			})
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Label)
		})
	}
}

func TestRender_StatusChangedDynamicLabel(t *testing.T) {
	rows := Render([]model.ActivityLogEntry{
		{
			ID:         1,
			Action:     "status_changed",
			OccurredAt: "2024-01-01T00:00:00Z",
			Status:     &model.Status{Code: "completed", Name: "Completed"},
		},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Status changed to completed", rows[0].Label)
}

func TestRender_StatusChangedWithoutStatusObject(t *testing.T) {
	rows := Render([]model.ActivityLogEntry{
		{ID: 1, Action: "status_changed", OccurredAt: "2024-01-01T00:00:00Z"},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Status Changed", rows[0].Label)
}

func TestRender_ActorFallsBackToSystem(t *testing.T) {
	rows := Render(sampleHistory())

	byID := make(map[int]DisplayEntry)
	for _, r := range rows {
		byID[r.Entry.ID] = r
	}

	assert.Equal(t, "John Doe", byID[1].Actor)
	assert.Equal(t, "System", byID[2].Actor)
}

func TestRender_UnparseableTimestampSortsLast(t *testing.T) {
	rows := Render([]model.ActivityLogEntry{
		{ID: 1, Action: "created", OccurredAt: "not-a-time"},
		{ID: 2, Action: "completed", OccurredAt: "2024-01-05T15:00:00Z"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Entry.ID)
	assert.Equal(t, 1, rows[1].Entry.ID)
}
