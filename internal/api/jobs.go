package api

import (
	"context"
	"fmt"

	"github.com/pestguard/fieldops/internal/model"
)

// statusUpdateRequest is the body for PATCH /technician/jobs/{id}/status.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// ListJobs retrieves the technician's assigned jobs.
func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := c.Get(ctx, "/technician/jobs", &jobs); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// GetJob retrieves a single job in its detail shape.
func (c *Client) GetJob(ctx context.Context, id int) (*model.Job, error) {
	var job model.Job
	path := fmt.Sprintf("/technician/jobs/%d", id)
	if err := c.Get(ctx, path, &job); err != nil {
		return nil, fmt.Errorf("fetching job %d: %w", id, err)
	}
	return &job, nil
}

// UpdateJobStatus moves a job to the given status. The server re-validates
// the transition; callers pre-check legality to keep the happy path clean.
func (c *Client) UpdateJobStatus(
	ctx context.Context,
	id int,
	status string,
) (*model.Job, error) {
	var job model.Job
	path := fmt.Sprintf("/technician/jobs/%d/status", id)
	err := c.Patch(ctx, path, statusUpdateRequest{Status: status}, &job)
	if err != nil {
		return nil, fmt.Errorf("updating job %d status: %w", id, err)
	}
	return &job, nil
}

// AddJobNote appends a technician note to a job.
func (c *Client) AddJobNote(
	ctx context.Context,
	id int,
	content string,
) error {
	path := fmt.Sprintf("/technician/jobs/%d/notes", id)
	if err := c.Post(ctx, path, noteRequest{Content: content}, nil); err != nil {
		return fmt.Errorf("adding note to job %d: %w", id, err)
	}
	return nil
}
