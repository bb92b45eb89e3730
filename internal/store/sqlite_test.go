package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/store"
	"github.com/pestguard/fieldops/tests/testutil"
)

func strPtr(s string) *string { return &s }

func sampleAppointments() []model.Appointment {
	return []model.Appointment{
		{
			ID:            10,
			Service:       model.Service{Name: "Termite Inspection"},
			Status:        model.Status{Code: model.StatusConfirmed, Name: "Confirmed"},
			Address:       &model.Address{AddressLine1: "12 Oak Ave", City: "Springfield"},
			ScheduledDate: "2024-02-01",
			ScheduledTime: "09:00",
		},
		{
			ID:            11,
			Service:       model.Service{Name: "Rodent Control"},
			Status:        model.Status{Code: model.StatusPending, Name: "Pending"},
			ScheduledDate: "2024-01-20",
			ScheduledTime: "14:30",
		},
		{
			ID:            12,
			Service:       model.Service{Name: "General Pest Treatment"},
			Status:        model.Status{Code: model.StatusConfirmed, Name: "Confirmed"},
			Address:       &model.Address{AddressLine1: "4 Elm St", City: "Shelbyville"},
			ScheduledDate: "2024-01-20",
			ScheduledTime: "08:00",
		},
	}
}

func TestAppointments_ReplaceAndQuery(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAppointments(ctx, sampleAppointments()))

	all, err := s.GetAppointments(ctx, store.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ordered by scheduled date then time.
	assert.Equal(t, []int{12, 11, 10}, []int{all[0].ID, all[1].ID, all[2].ID})

	// Nested structures survive the round trip.
	byID, err := s.GetAppointmentByID(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, byID.Address)
	assert.Equal(t, "Springfield", byID.Address.City)
	assert.Equal(t, "Termite Inspection", byID.Service.Name)
}

func TestAppointments_FilterByStatusAndQuery(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAppointments(ctx, sampleAppointments()))

	confirmed, err := s.GetAppointments(ctx, store.AppointmentFilter{
		Status: strPtr(model.StatusConfirmed),
	})
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	// Query matches service name and city, case follows SQLite LIKE.
	matched, err := s.GetAppointments(ctx, store.AppointmentFilter{
		Query: strPtr("rodent"),
	})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, 11, matched[0].ID)

	byCity, err := s.GetAppointments(ctx, store.AppointmentFilter{
		Query: strPtr("Shelbyville"),
	})
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, 12, byCity[0].ID)
}

func TestAppointments_ReplaceDropsStale(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAppointments(ctx, sampleAppointments()))
	require.NoError(t, s.ReplaceAppointments(ctx, sampleAppointments()[:1]))

	all, err := s.GetAppointments(ctx, store.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 10, all[0].ID)

	_, err = s.GetAppointmentByID(ctx, 11)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobs_ReplaceAndQuery(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	jobs := []model.Job{
		{
			ID: 5, Title: "Pest Control - Residential", Customer: "John Smith",
			Address: "123 Main St", Scheduled: "2024-01-15T09:00:00",
			Status: model.StatusPending,
		},
		{
			ID: 6, Title: "Termite Treatment", Customer: "Acme Warehousing",
			Address: "9 Dock Rd", Scheduled: "2024-01-14T13:00:00",
			Status: model.StatusInProgress,
			Notes:  []model.Note{{ID: 1, Content: "Gate code 4411"}},
		},
	}
	require.NoError(t, s.ReplaceJobs(ctx, jobs))

	all, err := s.GetJobs(ctx, store.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 6, all[0].ID, "earlier scheduled job first")

	inProgress, err := s.GetJobs(ctx, store.JobFilter{
		Status: strPtr(model.StatusInProgress),
	})
	require.NoError(t, err)
	require.Len(t, inProgress, 1)

	byCustomer, err := s.GetJobs(ctx, store.JobFilter{Query: strPtr("Acme")})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)

	job, err := s.GetJobByID(ctx, 6)
	require.NoError(t, err)
	require.Len(t, job.Notes, 1)
	assert.Equal(t, "Gate code 4411", job.Notes[0].Content)
}

func TestNotifications_ReadFlagSurvivesReplace(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	notifs := []model.Notification{
		{ID: 1, Title: "Job assigned", Timestamp: "2024-01-10T08:00:00Z"},
		{ID: 2, Title: "Schedule change", Timestamp: "2024-01-11T08:00:00Z"},
		{ID: 3, Title: "Payment received", Timestamp: "2024-01-12T08:00:00Z", Read: true},
	}
	require.NoError(t, s.ReplaceNotifications(ctx, notifs))

	count, err := s.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkNotificationRead(ctx, 1))

	// A later poll still reporting ID 1 as unread must not flip it back.
	require.NoError(t, s.ReplaceNotifications(ctx, notifs))

	count, err = s.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].ID, "newest first")
}

func TestNotifications_ReplacePrunesAbsent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	notifs := []model.Notification{
		{ID: 1, Timestamp: "2024-01-10T08:00:00Z"},
		{ID: 2, Timestamp: "2024-01-11T08:00:00Z"},
	}
	require.NoError(t, s.ReplaceNotifications(ctx, notifs))
	require.NoError(t, s.ReplaceNotifications(ctx, notifs[1:]))

	all, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].ID)

	require.NoError(t, s.ReplaceNotifications(ctx, nil))
	all, err = s.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNotifications_MarkAllRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNotifications(ctx, []model.Notification{
		{ID: 1, Timestamp: "2024-01-10T08:00:00Z"},
		{ID: 2, Timestamp: "2024-01-11T08:00:00Z"},
	}))

	require.NoError(t, s.MarkAllNotificationsRead(ctx))

	count, err := s.UnreadNotificationCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInvoices_ReplaceAndList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	invoices := []model.Invoice{
		{ID: 1, Number: "INV-2024-0112", Status: "paid", Amount: "$250.00", IssuedDate: "2024-01-05"},
		{ID: 2, Number: "INV-2024-0113", Status: "unpaid", Amount: "$410.00", IssuedDate: "2024-01-09"},
	}
	require.NoError(t, s.ReplaceInvoices(ctx, invoices))

	all, err := s.GetInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-2024-0113", all[0].Number, "newest issue date first")
	assert.Equal(t, "$250.00", all[1].Amount)
}
