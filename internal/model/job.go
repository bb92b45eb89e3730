package model

// Job is the technician-facing view of a scheduled service. Jobs use a
// reduced status set: pending, in_progress, completed.
type Job struct {
	ID int `json:"id"`

	// Title is the job summary, e.g. "Pest Control - Residential".
	Title string `json:"title"`

	// Customer is the customer's display name.
	Customer string `json:"customer"`

	// Address is the single-line service address.
	Address string `json:"address"`

	// Scheduled is the combined date-time the job is booked for,
	// in RFC 3339 form without zone (server-local).
	Scheduled string `json:"scheduled"`

	// Status is the job status code.
	Status string `json:"status"`

	// Notes are technician annotations, ordered by creation.
	Notes []Note `json:"notes,omitempty"`

	// History is the append-only activity log for this job.
	History []ActivityLogEntry `json:"history,omitempty"`
}

// SearchFields returns the free-text searchable fields of a job.
func (j Job) SearchFields() []string {
	return []string{j.Title, j.Customer, j.Address}
}

// StatusCode returns the job's status code for facet filtering.
func (j Job) StatusCode() string {
	return j.Status
}
