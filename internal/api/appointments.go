package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pestguard/fieldops/internal/model"
)

// CreateAppointmentRequest is the body for scheduling a new appointment.
type CreateAppointmentRequest struct {
	ServiceID     int    `json:"service_id"`
	AddressID     int    `json:"address_id,omitempty"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Notes         string `json:"notes,omitempty"`
}

// rescheduleRequest is the body for POST .../reschedule.
type rescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Reason        string `json:"reason"`
}

// cancelRequest is the body for POST .../cancel.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// noteRequest is the body for POST .../notes.
type noteRequest struct {
	Content string `json:"content"`
}

// ListAppointments retrieves the customer's appointments, optionally
// filtered server-side by status code. An empty status returns all.
func (c *Client) ListAppointments(
	ctx context.Context,
	status string,
) ([]model.Appointment, error) {
	path := "/customer/appointments"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var appointments []model.Appointment
	if err := c.Get(ctx, path, &appointments); err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return appointments, nil
}

// GetAppointment retrieves a single appointment in its canonical detail
// shape, including notes, technicians, and history.
func (c *Client) GetAppointment(
	ctx context.Context,
	id int,
) (*model.Appointment, error) {
	var appointment model.Appointment
	path := fmt.Sprintf("/customer/appointments/%d", id)
	if err := c.Get(ctx, path, &appointment); err != nil {
		return nil, fmt.Errorf("fetching appointment %d: %w", id, err)
	}
	return &appointment, nil
}

// CreateAppointment schedules a new appointment.
func (c *Client) CreateAppointment(
	ctx context.Context,
	req CreateAppointmentRequest,
) (*model.Appointment, error) {
	var appointment model.Appointment
	if err := c.Post(ctx, "/customer/appointments", req, &appointment); err != nil {
		return nil, fmt.Errorf("creating appointment: %w", err)
	}
	return &appointment, nil
}

// CancelAppointment cancels an appointment with the given reason.
// Cancellation is a status transition server-side, never a deletion.
func (c *Client) CancelAppointment(
	ctx context.Context,
	id int,
	reason string,
) error {
	path := fmt.Sprintf("/customer/appointments/%d/cancel", id)
	if err := c.Post(ctx, path, cancelRequest{Reason: reason}, nil); err != nil {
		return fmt.Errorf("cancelling appointment %d: %w", id, err)
	}
	return nil
}

// RescheduleAppointment moves an appointment to a new date and time.
func (c *Client) RescheduleAppointment(
	ctx context.Context,
	id int,
	date string,
	timeOfDay string,
	reason string,
) error {
	path := fmt.Sprintf("/customer/appointments/%d/reschedule", id)
	body := rescheduleRequest{
		ScheduledDate: date,
		ScheduledTime: timeOfDay,
		Reason:        reason,
	}
	if err := c.Post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("rescheduling appointment %d: %w", id, err)
	}
	return nil
}

// UpdateAppointmentStatus moves an appointment to the given status.
// Used by staff surfaces; the server re-validates the transition.
func (c *Client) UpdateAppointmentStatus(
	ctx context.Context,
	id int,
	status string,
) (*model.Appointment, error) {
	var appointment model.Appointment
	path := fmt.Sprintf("/customer/appointments/%d/status", id)
	err := c.Patch(ctx, path, statusUpdateRequest{Status: status}, &appointment)
	if err != nil {
		return nil, fmt.Errorf("updating appointment %d status: %w", id, err)
	}
	return &appointment, nil
}

// AddAppointmentNote appends a note to an appointment. The response body
// is not the canonical detail shape; callers reload after success.
func (c *Client) AddAppointmentNote(
	ctx context.Context,
	id int,
	content string,
) error {
	path := fmt.Sprintf("/customer/appointments/%d/notes", id)
	if err := c.Post(ctx, path, noteRequest{Content: content}, nil); err != nil {
		return fmt.Errorf("adding note to appointment %d: %w", id, err)
	}
	return nil
}
