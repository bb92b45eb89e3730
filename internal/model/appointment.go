package model

// Appointment status codes as issued by the platform API. The server is
// the source of truth for this vocabulary; unknown codes must still render.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Appointment is a customer-facing scheduled service engagement.
type Appointment struct {
	// ID is the server-assigned identifier, immutable for the record's life.
	ID int `json:"id"`

	// Service describes what is being performed at this appointment.
	Service Service `json:"service"`

	// Status is the current lifecycle state (code plus display name).
	Status Status `json:"status"`

	// Address is the service location, if one is attached.
	Address *Address `json:"address,omitempty"`

	// ScheduledDate is the service date in YYYY-MM-DD form.
	ScheduledDate string `json:"scheduled_date"`

	// ScheduledTime is the service time in HH:MM form.
	ScheduledTime string `json:"scheduled_time"`

	// Notes are customer/staff annotations, ordered by creation.
	// Notes are immutable once created.
	Notes []Note `json:"notes,omitempty"`

	// Technicians are the staff assigned to this appointment.
	Technicians []TechnicianAssignment `json:"technicians,omitempty"`

	// History is the append-only activity log for this appointment.
	History []ActivityLogEntry `json:"history,omitempty"`
}

// Status pairs a machine status code with its server-provided display name.
type Status struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Service describes the booked service offering.
type Service struct {
	Name                     string `json:"name"`
	Description              string `json:"description"`
	Price                    string `json:"price"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
}

// Address is a service location.
type Address struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// Note is a single annotation on an appointment.
type Note struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	AddedBy Actor  `json:"added_by"`
	AddedAt string `json:"added_at"`
}

// Actor identifies the person behind a note or history entry.
type Actor struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// TechnicianAssignment links a staff member to an appointment.
type TechnicianAssignment struct {
	ID         int    `json:"id"`
	Staff      Staff  `json:"staff"`
	AssignedAt string `json:"assigned_at"`
}

// Staff is a technician record as embedded in an assignment.
type Staff struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// ActivityLogEntry is one event in an appointment's history. Entries are
// append-only; the client never edits or deletes them.
type ActivityLogEntry struct {
	ID int `json:"id"`

	// Action is the event tag, e.g. "created", "rescheduled", "note_added".
	Action string `json:"action"`

	// Comment is free-form text attached to the event, when present.
	Comment string `json:"comment,omitempty"`

	// OccurredAt is the event timestamp in RFC 3339 form.
	OccurredAt string `json:"occurred_at"`

	// Status is the target status for "status_changed" events.
	Status *Status `json:"status,omitempty"`

	// OccurredBy is the acting user, when the server attributes one.
	OccurredBy *Actor `json:"occurred_by,omitempty"`
}

// SearchFields returns the free-text searchable fields of an appointment.
func (a Appointment) SearchFields() []string {
	fields := []string{a.Service.Name}
	if a.Address != nil {
		fields = append(fields, a.Address.AddressLine1, a.Address.City)
	}
	return fields
}

// StatusCode returns the appointment's status code for facet filtering.
func (a Appointment) StatusCode() string {
	return a.Status.Code
}
