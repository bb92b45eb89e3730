// Package controller mediates between optimistic local mutation and
// authoritative remote state for a single appointment or job. User
// actions can overlap (a note submitted while a reschedule is still in
// flight); the controller keeps the local cache consistent across any
// interleaving of responses.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
)

// ErrClosed is returned by operations issued (or completing) after the
// owning screen tore the controller down.
var ErrClosed = errors.New("controller closed")

// ErrNotLoaded is returned by mutations attempted before the first
// successful load.
var ErrNotLoaded = errors.New("appointment not loaded")

// AppointmentService is the remote surface the controller drives. The
// api.Client satisfies it; tests substitute fakes.
type AppointmentService interface {
	GetAppointment(ctx context.Context, id int) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id int, reason string) error
	RescheduleAppointment(ctx context.Context, id int, date, timeOfDay, reason string) error
	AddAppointmentNote(ctx context.Context, id int, content string) error
	UpdateAppointmentStatus(ctx context.Context, id int, statusCode string) (*model.Appointment, error)
}

// Appointment owns the cached server state for one appointment. The
// cache belongs exclusively to the screen displaying the entity; it is
// not shared across screens. Methods are safe for concurrent use since
// Bubble Tea commands run in goroutines.
type Appointment struct {
	svc AppointmentService
	id  int

	mu      sync.Mutex
	state   State
	current *model.Appointment
	closed  bool

	// seq tags each read with a monotonically increasing number at issue
	// time; applied records the seq of the newest response folded into
	// the cache. A response older than applied is discarded, so the last
	// response received wins even when the network completes reads out
	// of order.
	seq     uint64
	applied uint64

	validate *validator.Validate
}

// NewAppointment creates a controller for the appointment with the given
// server ID.
func NewAppointment(svc AppointmentService, id int) *Appointment {
	return &Appointment{
		svc:      svc,
		id:       id,
		state:    StateIdle,
		validate: newValidator(),
	}
}

// ID returns the entity's server ID.
func (c *Appointment) ID() int {
	return c.id
}

// State returns the current cache state.
func (c *Appointment) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the cached appointment, or nil before the
// first successful load.
func (c *Appointment) Current() *model.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAppointment(c.current)
}

// Close marks the controller torn down. Responses still in flight are
// discarded on arrival instead of being applied to a cache no screen is
// watching.
func (c *Appointment) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Load fetches current server state and replaces the local cache
// wholesale. Concurrent loads converge: out-of-order completions are
// resolved by discarding any response older than one already applied.
// On failure the stale cache (if any) stays visible and the error is
// returned for display.
func (c *Appointment) Load(ctx context.Context) (*model.Appointment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.seq++
	seq := c.seq
	if c.state == StateIdle {
		c.state = StateLoading
	}
	c.mu.Unlock()

	appt, err := c.svc.GetAppointment(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if err != nil {
		// Degraded read: keep whatever was cached, surface the error.
		if c.state == StateLoading {
			c.state = StateError
		}
		logging.Logger.Warn().
			Int("appointment", c.id).
			Err(err).
			Msg("load failed, cache unchanged")
		return cloneAppointment(c.current), fmt.Errorf("loading appointment %d: %w", c.id, err)
	}

	if seq <= c.applied {
		// A newer response already landed; this one is stale.
		logging.Logger.Debug().
			Int("appointment", c.id).
			Uint64("seq", seq).
			Uint64("applied", c.applied).
			Msg("discarding stale load response")
		return cloneAppointment(c.current), nil
	}

	c.applied = seq
	c.current = appt
	if c.state == StateLoading || c.state == StateError {
		c.state = StateIdle
	}
	return cloneAppointment(c.current), nil
}

// Cancel cancels the appointment with the given reason. A blank reason
// fails locally with a field-scoped validation error before any network
// call. Success triggers a full reload, since the reload response is the
// canonical shape downstream display code consumes.
func (c *Appointment) Cancel(ctx context.Context, reason string) (*model.Appointment, error) {
	if err := c.requireActionable(status.ActionCancel); err != nil {
		return nil, err
	}
	if err := checkInput(c.validate, cancelInput{Reason: reason}); err != nil {
		return nil, err
	}

	if err := c.svc.CancelAppointment(ctx, c.id, reason); err != nil {
		return nil, fmt.Errorf("cancelling appointment %d: %w", c.id, err)
	}

	return c.Load(ctx)
}

// Reschedule moves the appointment to a new date and time. Date, time,
// and reason are all required; every violated field is reported in one
// *ValidationError rather than failing on the first. Success reloads.
func (c *Appointment) Reschedule(
	ctx context.Context,
	date string,
	timeOfDay string,
	reason string,
) (*model.Appointment, error) {
	if err := c.requireActionable(status.ActionReschedule); err != nil {
		return nil, err
	}
	input := rescheduleInput{Date: date, Time: timeOfDay, Reason: reason}
	if err := checkInput(c.validate, input); err != nil {
		return nil, err
	}

	if err := c.svc.RescheduleAppointment(ctx, c.id, date, timeOfDay, reason); err != nil {
		return nil, fmt.Errorf("rescheduling appointment %d: %w", c.id, err)
	}

	return c.Load(ctx)
}

// AddNote appends a note to the appointment. The note-add response alone
// does not carry the notes and history arrays shown elsewhere on screen,
// so success triggers a refresh to keep them consistent.
func (c *Appointment) AddNote(ctx context.Context, content string) (*model.Appointment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	if err := checkInput(c.validate, noteInput{Content: content}); err != nil {
		return nil, err
	}

	if err := c.svc.AddAppointmentNote(ctx, c.id, content); err != nil {
		return nil, fmt.Errorf("adding note to appointment %d: %w", c.id, err)
	}

	return c.Load(ctx)
}

// UpdateStatus moves the appointment to target. The transition's
// legality is checked locally first, so illegal transitions never reach
// the server from this client. A legal transition applies an optimistic
// status patch immediately; the server response then reconciles the
// cache, or a rejection rolls the patch back to the last known-good
// state and surfaces the error.
func (c *Appointment) UpdateStatus(ctx context.Context, target string) (*model.Appointment, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if err := status.ValidateTransition(c.current.Status.Code, target); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	// Optimistic patch: show the target status without waiting for the
	// round-trip. Only the status field moves. The snapshot lives in
	// this call frame; overlapping updates each roll back to their own
	// pre-patch state.
	snapshot := cloneAppointment(c.current)
	appliedAtPatch := c.applied
	c.current.Status = model.Status{
		Code: target,
		Name: status.AppointmentDisplay(target).Label,
	}
	c.state = StateOptimistic
	c.mu.Unlock()

	updated, err := c.svc.UpdateAppointmentStatus(ctx, c.id, target)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if err != nil {
		// Roll back to the snapshot taken before the patch, unless a
		// newer response reconciled the cache while this request was in
		// flight. That response is authoritative; restoring the
		// snapshot over it would resurrect stale state.
		if c.applied == appliedAtPatch {
			c.current = snapshot
		}
		c.state = StateIdle
		logging.Logger.Warn().
			Int("appointment", c.id).
			Str("target", target).
			Err(err).
			Msg("status update rejected, rolled back")
		return cloneAppointment(c.current), fmt.Errorf(
			"updating appointment %d status: %w", c.id, err,
		)
	}

	// Reconcile with the authoritative response. Bump the applied
	// sequence so a slow load issued before this mutation cannot clobber
	// the newer state on arrival.
	c.seq++
	c.applied = c.seq
	c.current = updated
	c.state = StateIdle
	return cloneAppointment(c.current), nil
}

// requireActionable rejects lifecycle actions on terminal appointments
// before validation or network work happens.
func (c *Appointment) requireActionable(action status.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.current == nil {
		return ErrNotLoaded
	}
	if status.IsTerminal(c.current.Status.Code) {
		return &status.InvalidTransitionError{
			From:   c.current.Status.Code,
			Action: action,
		}
	}
	return nil
}

// cloneAppointment deep-copies an appointment so callers can never reach
// into the cache. Slice elements are value types and immutable once
// created, so element-level copies are not needed.
func cloneAppointment(a *model.Appointment) *model.Appointment {
	if a == nil {
		return nil
	}
	out := *a
	if a.Address != nil {
		addr := *a.Address
		out.Address = &addr
	}
	if a.Notes != nil {
		out.Notes = append([]model.Note(nil), a.Notes...)
	}
	if a.Technicians != nil {
		out.Technicians = append([]model.TechnicianAssignment(nil), a.Technicians...)
	}
	if a.History != nil {
		out.History = append([]model.ActivityLogEntry(nil), a.History...)
	}
	return &out
}
