package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pestguard/fieldops/internal/model"
)

func TestNextJob_ThreeStateFlow(t *testing.T) {
	got, err := NextJob(model.StatusPending, ActionStart)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got)

	got, err = NextJob(model.StatusInProgress, ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got)
}

func TestNextJob_NoCancellation(t *testing.T) {
	for _, current := range []string{
		model.StatusPending, model.StatusInProgress, model.StatusCompleted,
	} {
		_, err := NextJob(current, ActionCancel)

		var transErr *InvalidTransitionError
		assert.ErrorAs(t, err, &transErr, "jobs must not cancel from %s", current)
	}
}

func TestNextJob_CompletedIsTerminal(t *testing.T) {
	for _, action := range []Action{ActionStart, ActionComplete, ActionConfirm} {
		_, err := NextJob(model.StatusCompleted, action)
		assert.Error(t, err)
	}
}

func TestJobAction(t *testing.T) {
	action, label, target, ok := JobAction(model.StatusPending)
	require.True(t, ok)
	assert.Equal(t, ActionStart, action)
	assert.Equal(t, "Start Job", label)
	assert.Equal(t, model.StatusInProgress, target)

	action, label, target, ok = JobAction(model.StatusInProgress)
	require.True(t, ok)
	assert.Equal(t, ActionComplete, action)
	assert.Equal(t, "Complete Job", label)
	assert.Equal(t, model.StatusCompleted, target)

	_, _, _, ok = JobAction(model.StatusCompleted)
	assert.False(t, ok)
}

func TestJobDisplay_Fallback(t *testing.T) {
	for _, code := range []string{
		model.StatusPending, model.StatusInProgress, model.StatusCompleted,
	} {
		assert.NotEqual(t, unknownDisplay, JobDisplay(code))
	}
	assert.Equal(t, unknownDisplay, JobDisplay("paused"))
}
