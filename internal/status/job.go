package status

import (
	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
)

// jobEdges is the legal-edge table for the technician job domain. Jobs
// use the reduced three-state flow with no cancellation.
var jobEdges = map[string]map[Action]string{
	model.StatusPending: {
		ActionStart: model.StatusInProgress,
	},
	model.StatusInProgress: {
		ActionComplete: model.StatusCompleted,
	},
}

// NextJob returns the job status that results from applying action to
// current. Illegal pairs return *InvalidTransitionError.
func NextJob(current string, action Action) (string, error) {
	edges, ok := jobEdges[current]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	next, ok := edges[action]
	if !ok {
		return "", &InvalidTransitionError{From: current, Action: action}
	}
	return next, nil
}

// ValidateJobTransition checks that current can move directly to target.
func ValidateJobTransition(current, target string) error {
	for _, next := range jobEdges[current] {
		if next == target {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, Action: actionToward(target)}
}

// JobAction returns the single advancing action for a job's current
// status along with its button label and target status. ok is false for
// completed (or unknown) jobs, which have no further action.
func JobAction(current string) (action Action, label string, target string, ok bool) {
	switch current {
	case model.StatusPending:
		return ActionStart, "Start Job", model.StatusInProgress, true
	case model.StatusInProgress:
		return ActionComplete, "Complete Job", model.StatusCompleted, true
	}
	return "", "", "", false
}

var jobDisplays = map[string]Display{
	model.StatusPending:    {Icon: "◌", Badge: BadgePending, Label: "Pending"},
	model.StatusInProgress: {Icon: "◐", Badge: BadgeWarning, Label: "In Progress"},
	model.StatusCompleted:  {Icon: "✓", Badge: BadgeCompleted, Label: "Completed"},
}

// JobDisplay returns the display triple for a job status, falling back
// with a logged warning on unknown codes.
func JobDisplay(code string) Display {
	if d, ok := jobDisplays[code]; ok {
		return d
	}
	logging.Logger.Warn().
		Str("status", code).
		Msg("unknown job status code, using fallback display")
	return unknownDisplay
}
