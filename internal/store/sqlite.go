package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pestguard/fieldops/internal/model"
)

// ErrNotFound is returned when a requested record is not in the cache.
var ErrNotFound = errors.New("not found in cache")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceAppointments swaps the cached appointment set for the given one.
// The server listing is authoritative; records absent from it are dropped.
func (s *SQLiteStore) ReplaceAppointments(
	ctx context.Context,
	appts []model.Appointment,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM appointments"); err != nil {
		return fmt.Errorf("clearing appointments: %w", err)
	}

	const query = `
		INSERT INTO appointments (
			id, status, service_name, scheduled_date, scheduled_time,
			city, data, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing appointment insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, a := range appts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshaling appointment %d: %w", a.ID, err)
		}

		city := ""
		if a.Address != nil {
			city = a.Address.City
		}

		_, err = stmt.ExecContext(ctx,
			a.ID, a.Status.Code, a.Service.Name,
			a.ScheduledDate, a.ScheduledTime,
			city, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("inserting appointment %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// GetAppointments retrieves cached appointments matching the filter,
// ordered by scheduled date and time.
func (s *SQLiteStore) GetAppointments(
	ctx context.Context,
	filter AppointmentFilter,
) ([]model.Appointment, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(service_name LIKE ? OR city LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT data FROM appointments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY scheduled_date %s, scheduled_time %s", direction, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning appointment row: %w", err)
		}
		var a model.Appointment
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("unmarshaling appointment: %w", err)
		}
		appts = append(appts, a)
	}

	return appts, rows.Err()
}

// GetAppointmentByID retrieves a single cached appointment.
func (s *SQLiteStore) GetAppointmentByID(
	ctx context.Context,
	id int,
) (*model.Appointment, error) {
	var data string
	err := s.db.GetContext(ctx, &data, "SELECT data FROM appointments WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting appointment %d: %w", id, err)
	}

	var a model.Appointment
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("unmarshaling appointment %d: %w", id, err)
	}
	return &a, nil
}

// ReplaceJobs swaps the cached job set for the given one.
func (s *SQLiteStore) ReplaceJobs(ctx context.Context, jobs []model.Job) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM jobs"); err != nil {
		return fmt.Errorf("clearing jobs: %w", err)
	}

	const query = `
		INSERT INTO jobs (
			id, status, title, customer, address, scheduled, data, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing job insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, j := range jobs {
		data, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("marshaling job %d: %w", j.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			j.ID, j.Status, j.Title, j.Customer,
			j.Address, j.Scheduled, string(data), now,
		)
		if err != nil {
			return fmt.Errorf("inserting job %d: %w", j.ID, err)
		}
	}

	return tx.Commit()
}

// GetJobs retrieves cached jobs matching the filter, ordered by
// scheduled time.
func (s *SQLiteStore) GetJobs(
	ctx context.Context,
	filter JobFilter,
) ([]model.Job, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR customer LIKE ? OR address LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}

	query := "SELECT data FROM jobs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += " ORDER BY scheduled " + direction

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		var j model.Job
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			return nil, fmt.Errorf("unmarshaling job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// GetJobByID retrieves a single cached job.
func (s *SQLiteStore) GetJobByID(ctx context.Context, id int) (*model.Job, error) {
	var data string
	err := s.db.GetContext(ctx, &data, "SELECT data FROM jobs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %d: %w", id, err)
	}

	var j model.Job
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshaling job %d: %w", id, err)
	}
	return &j, nil
}

// ReplaceNotifications reconciles the cached notification set with the
// server listing. Records absent from the listing are dropped; for
// surviving records a locally set read flag is kept even if the server
// payload still reports unread, so the flag only ever moves forward
// within a session.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	notifs []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if len(notifs) == 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
			return fmt.Errorf("clearing notifications: %w", err)
		}
		return tx.Commit()
	}

	ids := make([]interface{}, len(notifs))
	placeholders := make([]string, len(notifs))
	for i, n := range notifs {
		ids[i] = n.ID
		placeholders[i] = "?"
	}
	deleteQuery := fmt.Sprintf(
		"DELETE FROM notifications WHERE id NOT IN (%s)",
		strings.Join(placeholders, ", "),
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, ids...); err != nil {
		return fmt.Errorf("pruning notifications: %w", err)
	}

	const query = `
		INSERT INTO notifications (
			id, title, message, type, job_id, read, timestamp, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			message    = excluded.message,
			type       = excluded.type,
			job_id     = excluded.job_id,
			read       = MAX(notifications.read, excluded.read),
			timestamp  = excluded.timestamp,
			fetched_at = excluded.fetched_at`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing notification upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, n := range notifs {
		_, err = stmt.ExecContext(ctx,
			n.ID, n.Title, n.Message, n.Type, n.JobID,
			boolToInt(n.Read), n.Timestamp, now,
		)
		if err != nil {
			return fmt.Errorf("upserting notification %d: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications retrieves all cached notifications, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, title, message, type, job_id, read, timestamp FROM notifications ORDER BY timestamp DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifs []model.Notification
	for rows.Next() {
		var (
			n       model.Notification
			readInt int
		)
		err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.JobID, &readInt, &n.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Read = readInt != 0
		notifs = append(notifs, n)
	}

	return notifs, rows.Err()
}

// MarkNotificationRead marks a single cached notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every cached notification as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1")
	if err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}
	return nil
}

// UnreadNotificationCount returns the number of cached unread notifications.
func (s *SQLiteStore) UnreadNotificationCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE read = 0",
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// ReplaceInvoices swaps the cached invoice set for the given one.
func (s *SQLiteStore) ReplaceInvoices(
	ctx context.Context,
	invoices []model.Invoice,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
		return fmt.Errorf("clearing invoices: %w", err)
	}

	const query = `
		INSERT INTO invoices (
			id, number, status, amount, service_name, issued_date, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing invoice insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, inv := range invoices {
		_, err = stmt.ExecContext(ctx,
			inv.ID, inv.Number, inv.Status, inv.Amount,
			inv.ServiceName, inv.IssuedDate, now,
		)
		if err != nil {
			return fmt.Errorf("inserting invoice %d: %w", inv.ID, err)
		}
	}

	return tx.Commit()
}

// GetInvoices retrieves all cached invoices, newest first by issue date.
func (s *SQLiteStore) GetInvoices(ctx context.Context) ([]model.Invoice, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, number, status, amount, service_name, issued_date FROM invoices ORDER BY issued_date DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		err := rows.Scan(
			&inv.ID, &inv.Number, &inv.Status, &inv.Amount,
			&inv.ServiceName, &inv.IssuedDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
