// Package activity derives a displayable timeline from an appointment's
// append-only history. The API may deliver entries in any order; render
// order is always most-recent-first.
package activity

import (
	"sort"
	"strings"
	"time"

	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
)

// DisplayEntry is one rendered timeline row.
type DisplayEntry struct {
	Entry model.ActivityLogEntry

	Icon  string
	Badge status.Badge
	Label string

	// Actor is the attributed user's name, or "System" when the server
	// recorded no actor.
	Actor string

	// OccurredAt is the parsed event time; zero when the timestamp is
	// unparseable, which sorts such entries last.
	OccurredAt time.Time
}

// actionDisplay mirrors the status display triple for history action tags.
type actionDisplay struct {
	icon  string
	badge status.Badge
	label string
}

var actionDisplays = map[string]actionDisplay{
	"created":             {icon: "+", badge: status.BadgeInfo, label: "Created"},
	"rescheduled":         {icon: "↻", badge: status.BadgeWarning, label: "Rescheduled"},
	"cancelled":           {icon: "✗", badge: status.BadgeCanceled, label: "Cancelled"},
	"completed":           {icon: "✓", badge: status.BadgeCompleted, label: "Completed"},
	"note_added":          {icon: "✎", badge: status.BadgeInfo, label: "Note Added"},
	"technician_assigned": {icon: "»", badge: status.BadgeWarning, label: "Tech Assigned"},
	"payment_received":    {icon: "$", badge: status.BadgeCompleted, label: "Payment Received"},
	"status_changed":      {icon: "⇄", badge: status.BadgeDefault, label: "Status Changed"},
}

var unknownActionDisplay = actionDisplay{
	icon: "·", badge: status.BadgeDefault, label: "Updated",
}

// Render maps history entries to display rows sorted descending by
// occurrence time. The input slice is never mutated; equal inputs in any
// permutation produce the same output.
func Render(entries []model.ActivityLogEntry) []DisplayEntry {
	out := make([]DisplayEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, displayEntry(e))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		// Tie-break on ID so permuted inputs render identically.
		return out[i].Entry.ID > out[j].Entry.ID
	})

	return out
}

func displayEntry(e model.ActivityLogEntry) DisplayEntry {
	action := strings.ToLower(e.Action)
	d, known := actionDisplays[action]
	if !known {
		d = unknownActionDisplay
	}

	label := d.label
	// status_changed is the one action with dynamic label content: it
	// names the status the appointment moved to.
	if action == "status_changed" && e.Status != nil {
		label = "Status changed to " + strings.ToLower(e.Status.Name)
	}

	actor := "System"
	if e.OccurredBy != nil && e.OccurredBy.Name != "" {
		actor = e.OccurredBy.Name
	}

	occurredAt, err := time.Parse(time.RFC3339, e.OccurredAt)
	if err != nil {
		occurredAt = time.Time{}
	}

	return DisplayEntry{
		Entry:      e,
		Icon:       d.icon,
		Badge:      d.badge,
		Label:      label,
		Actor:      actor,
		OccurredAt: occurredAt,
	}
}
