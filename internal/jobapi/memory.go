package jobapi

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rsilvagit/joblist/internal/filter"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
)

//go:embed seed.json
var seedJSON []byte

// Seed returns the bundled demo jobs.
func Seed() ([]model.Job, error) {
	var jobs []model.Job
	if err := json.Unmarshal(seedJSON, &jobs); err != nil {
		return nil, fmt.Errorf("jobapi: decoding seed: %w", err)
	}
	return jobs, nil
}

// Memory is an in-process jobs backend. It filters, sorts and paginates the
// way the jobs service does and is used for demo mode and tests.
type Memory struct {
	mu      sync.RWMutex
	jobs    []model.Job
	applied map[string]map[string]bool // user id -> job ids
}

// NewMemory creates a backend serving the given jobs.
func NewMemory(jobs []model.Job) *Memory {
	return &Memory{
		jobs:    slices.Clone(jobs),
		applied: make(map[string]map[string]bool),
	}
}

func (m *Memory) ListJobs(ctx context.Context, params query.Params) (*model.Page, error) {
	if err := params.Validate(); err != nil {
		return nil, &APIError{StatusCode: 400, Message: err.Error()}
	}

	m.mu.RLock()
	matched := slices.Clone(filter.Apply(m.jobs, filter.FromParams(params)))
	m.mu.RUnlock()

	sortJobs(matched, params.OrderByField, params.OrderByDirection)

	page := &model.Page{Data: []model.Job{}, Meta: model.Meta{Total: len(matched)}}
	// Past the last page the result is empty. Checking first keeps the
	// offset from overflowing for very large page numbers.
	if params.Page > query.TotalPages(len(matched), params.PerPage) {
		return page, nil
	}
	start := (params.Page - 1) * params.PerPage
	end := min(start+params.PerPage, len(matched))
	page.Data = append(page.Data, matched[start:end]...)
	return page, nil
}

// Apply records an application of the current user to a job.
func (m *Memory) Apply(ctx context.Context, jobID string) error {
	user := session.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.find(jobID); !ok {
		return ErrNotFound
	}
	if m.applied[user.ID] == nil {
		m.applied[user.ID] = make(map[string]bool)
	}
	m.applied[user.ID][jobID] = true
	return nil
}

func (m *Memory) WithdrawApplication(ctx context.Context, jobID string) error {
	user := session.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.applied[user.ID][jobID] {
		return ErrNotApplied
	}
	delete(m.applied[user.ID], jobID)
	return nil
}

func (m *Memory) AppliedJobs(ctx context.Context) ([]model.Job, error) {
	user := session.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := []model.Job{}
	for _, j := range m.jobs {
		if m.applied[user.ID][j.ID] {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func (m *Memory) find(id string) (model.Job, bool) {
	for _, j := range m.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.Job{}, false
}

func sortJobs(jobs []model.Job, field string, dir query.Direction) {
	slices.SortStableFunc(jobs, func(a, b model.Job) int {
		var c int
		if field == "createdAt" {
			c = a.CreatedAt.Compare(b.CreatedAt)
		} else {
			c = cmp.Compare(strings.ToLower(a.Field(field)), strings.ToLower(b.Field(field)))
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if dir == query.Desc {
			return -c
		}
		return c
	})
}
