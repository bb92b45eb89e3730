package model

// Notification types as issued by the platform API.
const (
	NotificationTypeJob    = "job"
	NotificationTypeSystem = "system"
	NotificationTypeAlert  = "alert"
)

// Notification is an alert surfaced to the user. Notifications are
// fetched in bulk and only ever mutated by marking them read; the client
// never creates or deletes them.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID int `json:"id"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the human-readable notification body.
	Message string `json:"message"`

	// Timestamp is when the notification was generated, RFC 3339.
	Timestamp string `json:"timestamp"`

	// Read indicates whether the user has seen this notification.
	// Within a session the flag only moves false -> true.
	Read bool `json:"read"`

	// Type is one of the NotificationType* constants.
	Type string `json:"type"`

	// JobID links job-type notifications to the job they concern.
	JobID int `json:"job_id,omitempty"`
}
