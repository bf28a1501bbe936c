// Package jobapi talks to the jobs service behind the listing page: the
// paginated query endpoint, the withdraw command and the applied-jobs feed.
package jobapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

// API defines the contract every jobs backend must satisfy.
type API interface {
	// ListJobs returns one page of jobs for the given parameters.
	ListJobs(ctx context.Context, params query.Params) (*model.Page, error)

	// WithdrawApplication retracts the current user's application to a job.
	WithdrawApplication(ctx context.Context, jobID string) error

	// AppliedJobs returns the jobs the current user has applied to.
	AppliedJobs(ctx context.Context) ([]model.Job, error)
}

var (
	ErrUnauthenticated = errors.New("jobapi: no signed-in user")
	ErrNotApplied      = errors.New("jobapi: no application to withdraw")
	ErrNotFound        = errors.New("jobapi: job not found")
)

// APIError is a non-2xx answer from the jobs service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("jobapi: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("jobapi: status %d: %s", e.StatusCode, e.Message)
}
