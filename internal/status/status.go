// Package status is the single source of truth for appointment and job
// lifecycle transitions and their display metadata. The per-screen status
// tables that tend to accrete in UI code all route through here.
package status

import (
	"fmt"

	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
)

// Action is a user-initiated lifecycle operation.
type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// InvalidTransitionError reports an attempt to apply an action a status
// does not admit. The attempted transition is never sent to the server.
type InvalidTransitionError struct {
	From   string
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf(
		"invalid transition: cannot %s an appointment in status %q",
		e.Action, e.From,
	)
}

// appointmentEdges is the legal-edge table for the appointment domain.
// Reschedule keeps the status unchanged; only the schedule fields move.
var appointmentEdges = map[string]map[Action]string{
	model.StatusPending: {
		ActionConfirm: model.StatusConfirmed,
		ActionCancel:  model.StatusCancelled,
	},
	model.StatusConfirmed: {
		ActionStart:      model.StatusInProgress,
		ActionReschedule: model.StatusConfirmed,
		ActionCancel:     model.StatusCancelled,
	},
	model.StatusInProgress: {
		ActionComplete: model.StatusCompleted,
		ActionCancel:   model.StatusCancelled,
	},
	// completed and cancelled are terminal: no edges.
}

// Next returns the appointment status that results from applying action
// to current. Illegal pairs return *InvalidTransitionError; current is
// never mutated (statuses are values).
func Next(current string, action Action) (string, error) {
	edges, ok := appointmentEdges[current]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	next, ok := edges[action]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	return next, nil
}

// ValidateTransition checks that current can move directly to target via
// some legal action. Used by the sync controller before a status-update
// request is dispatched.
func ValidateTransition(current, target string) error {
	for action, next := range appointmentEdges[current] {
		if next == target && action != ActionReschedule {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, Action: actionToward(target)}
}

// actionToward names the action a caller was presumably attempting, for
// error messages only.
func actionToward(target string) Action {
	switch target {
	case model.StatusConfirmed:
		return ActionConfirm
	case model.StatusInProgress:
		return ActionStart
	case model.StatusCompleted:
		return ActionComplete
	case model.StatusCancelled:
		return ActionCancel
	}
	return Action(target)
}

// IsTerminal reports whether code admits no further transitions.
func IsTerminal(code string) bool {
	return code == model.StatusCompleted || code == model.StatusCancelled
}

// AllowedActions returns the actions current admits, in a stable order.
func AllowedActions(current string) []Action {
	order := []Action{
		ActionConfirm, ActionStart, ActionComplete,
		ActionReschedule, ActionCancel,
	}
	edges := appointmentEdges[current]
	var actions []Action
	for _, a := range order {
		if _, ok := edges[a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Badge is a display variant consumed by the theme layer.
type Badge string

const (
	BadgePending   Badge = "pending"
	BadgeInfo      Badge = "info"
	BadgeWarning   Badge = "warning"
	BadgeCompleted Badge = "completed"
	BadgeCanceled  Badge = "canceled"
	BadgeDefault   Badge = "default"
)

// Display is the render metadata for one status code.
type Display struct {
	Icon  string
	Badge Badge
	Label string
}

// unknownDisplay is the fallback for status codes this client predates.
var unknownDisplay = Display{Icon: "?", Badge: BadgeDefault, Label: "Unknown"}

var appointmentDisplays = map[string]Display{
	model.StatusPending:    {Icon: "◌", Badge: BadgePending, Label: "Pending"},
	model.StatusConfirmed:  {Icon: "●", Badge: BadgeInfo, Label: "Confirmed"},
	model.StatusInProgress: {Icon: "◐", Badge: BadgeWarning, Label: "In Progress"},
	model.StatusCompleted:  {Icon: "✓", Badge: BadgeCompleted, Label: "Completed"},
	model.StatusCancelled:  {Icon: "✗", Badge: BadgeCanceled, Label: "Cancelled"},
}

// AppointmentDisplay returns the display triple for an appointment status.
// The table is total: unrecognized codes get the fallback triple and a
// logged warning, since the server may introduce codes this client has
// never seen.
func AppointmentDisplay(code string) Display {
	if d, ok := appointmentDisplays[code]; ok {
		return d
	}
	logging.Logger.Warn().
		Str("status", code).
		Msg("unknown appointment status code, using fallback display")
	return unknownDisplay
}
