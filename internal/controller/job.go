package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pestguard/fieldops/internal/logging"
	"github.com/pestguard/fieldops/internal/model"
	"github.com/pestguard/fieldops/internal/status"
)

// JobService is the remote surface for the technician job controller.
type JobService interface {
	GetJob(ctx context.Context, id int) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, id int, statusCode string) (*model.Job, error)
	AddJobNote(ctx context.Context, id int, content string) error
}

// Job owns the cached server state for one technician job. Same
// consistency discipline as the appointment controller, over the reduced
// three-state job lifecycle.
type Job struct {
	svc JobService
	id  int

	mu       sync.Mutex
	state   State
	current *model.Job
	closed  bool

	seq     uint64
	applied uint64

	validate *validator.Validate
}

// NewJob creates a controller for the job with the given server ID.
func NewJob(svc JobService, id int) *Job {
	return &Job{
		svc:      svc,
		id:       id,
		state:    StateIdle,
		validate: newValidator(),
	}
}

// ID returns the entity's server ID.
func (c *Job) ID() int {
	return c.id
}

// State returns the current cache state.
func (c *Job) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the cached job, or nil before the first
// successful load.
func (c *Job) Current() *model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneJob(c.current)
}

// Close marks the controller torn down; in-flight responses are
// discarded on arrival.
func (c *Job) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Load fetches current server state, replacing the cache wholesale with
// the same last-response-wins discipline as the appointment controller.
func (c *Job) Load(ctx context.Context) (*model.Job, error) {
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

	job, err := c.svc.GetJob(ctx, c.id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if err != nil {
		if c.state == StateLoading {
			c.state = StateError
		}
		return cloneJob(c.current), fmt.Errorf("loading job %d: %w", c.id, err)
	}

	if seq <= c.applied {
		return cloneJob(c.current), nil
	}

	c.applied = seq
	c.current = job
	if c.state == StateLoading || c.state == StateError {
		c.state = StateIdle
	}
	return cloneJob(c.current), nil
}

// UpdateStatus advances the job to target ("Start Job" or "Complete
// Job"). Legality is checked against the job transition table before
// dispatch; the optimistic patch shows immediately and rolls back to the
// last known-good state if the server rejects the transition.
func (c *Job) UpdateStatus(ctx context.Context, target string) (*model.Job, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.current == nil {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if err := status.ValidateJobTransition(c.current.Status, target); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	snapshot := cloneJob(c.current)
	appliedAtPatch := c.applied
	c.current.Status = target
	c.state = StateOptimistic
	c.mu.Unlock()

	updated, err := c.svc.UpdateJobStatus(ctx, c.id, target)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if err != nil {
		// Restore the pre-patch snapshot only if nothing newer landed
		// while this request was in flight.
		if c.applied == appliedAtPatch {
			c.current = snapshot
		}
		c.state = StateIdle
		logging.Logger.Warn().
			Int("job", c.id).
			Str("target", target).
			Err(err).
			Msg("job status update rejected, rolled back")
		return cloneJob(c.current), fmt.Errorf(
			"updating job %d status: %w", c.id, err,
		)
	}

	c.seq++
	c.applied = c.seq
	c.current = updated
	c.state = StateIdle
	return cloneJob(c.current), nil
}

// AddNote appends a technician note to the job, then reloads so the
// notes list and history stay consistent.
func (c *Job) AddNote(ctx context.Context, content string) (*model.Job, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	if err := checkInput(c.validate, noteInput{Content: content}); err != nil {
		return nil, err
	}

	if err := c.svc.AddJobNote(ctx, c.id, content); err != nil {
		return nil, fmt.Errorf("adding note to job %d: %w", c.id, err)
	}

	return c.Load(ctx)
}

func cloneJob(j *model.Job) *model.Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Notes != nil {
		out.Notes = append([]model.Note(nil), j.Notes...)
	}
	if j.History != nil {
		out.History = append([]model.ActivityLogEntry(nil), j.History...)
	}
	return &out
}
