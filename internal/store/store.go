package store

import (
	"context"

	"github.com/pestguard/fieldops/internal/model"
)

// AppointmentFilter controls filtering and pagination for cached
// appointment queries. Nil pointer fields mean "any".
type AppointmentFilter struct {
	Status   *string
	Query    *string // matches service name and address
	SortDesc bool    // by scheduled date+time
	Limit    int
	Offset   int
}

// JobFilter controls filtering and pagination for cached job queries.
type JobFilter struct {
	Status   *string
	Query    *string // matches title, customer, address
	SortDesc bool    // by scheduled time
	Limit    int
	Offset   int
}

// Store is the local read cache for server-owned records. Poll cycles
// replace whole record sets; the only locally originated write is the
// notification read flag, which survives until the next full replace.
type Store interface {
	// === Appointments ===

	ReplaceAppointments(ctx context.Context, appts []model.Appointment) error
	GetAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error)
	GetAppointmentByID(ctx context.Context, id int) (*model.Appointment, error)

	// === Jobs ===

	ReplaceJobs(ctx context.Context, jobs []model.Job) error
	GetJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)
	GetJobByID(ctx context.Context, id int) (*model.Job, error)

	// === Notifications ===

	ReplaceNotifications(ctx context.Context, notifs []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsRead(ctx context.Context) error
	UnreadNotificationCount(ctx context.Context) (int, error)

	// === Invoices ===

	ReplaceInvoices(ctx context.Context, invoices []model.Invoice) error
	GetInvoices(ctx context.Context) ([]model.Invoice, error)
}
