// Package listing owns the state of one job listing page: its query
// parameters, the fetch they trigger and the view that results from it.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/rsilvagit/joblist/internal/jobapi"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
)

// Listing is the controller behind a live listing page. Every change of the
// query parameters publishes a Loading view and issues one fetch; the result
// is published when it arrives. Inputs are never blocked while a fetch is in
// flight. A response overtaken by a newer request is dropped.
//
// Changing the filter or sort keeps the current page.
type Listing struct {
	api      jobapi.API
	logger   arbor.ILogger
	onChange func(View)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	params query.Params
	view   View
	seq    uint64
	closed bool
}

// New creates a Listing. ctx bounds every fetch and carries the signed-in
// user. onChange receives every published view; it is called with the
// listing's lock held and must not call back into the Listing.
func New(ctx context.Context, api jobapi.API, params query.Params, logger arbor.ILogger, onChange func(View)) *Listing {
	ctx, cancel := context.WithCancel(ctx)
	if onChange == nil {
		onChange = func(View) {}
	}
	return &Listing{
		api:      api,
		logger:   logger,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
		params:   params,
		view:     loadingView(params),
	}
}

// Start issues the initial fetch.
func (l *Listing) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.fetchLocked()
	}
}

// View returns the current view.
func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// Params returns the current parameters.
func (l *Listing) Params() query.Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

// SetSearchField selects the field the filter text applies to.
func (l *Listing) SetSearchField(field query.SearchField) (bool, error) {
	return l.update(func(p *query.Params) { p.SearchField = field })
}

// SetSearchQuery sets the filter text.
func (l *Listing) SetSearchQuery(text string) (bool, error) {
	return l.update(func(p *query.Params) { p.SearchQuery = text })
}

// SetPerPage sets the page size.
func (l *Listing) SetPerPage(n int) (bool, error) {
	return l.update(func(p *query.Params) { p.PerPage = n })
}

// SetOrder sets the sort field and direction.
func (l *Listing) SetOrder(field string, dir query.Direction) (bool, error) {
	return l.update(func(p *query.Params) {
		p.OrderByField = field
		p.OrderByDirection = dir
	})
}

// Previous moves one page back. On page 1 nothing changes and nothing is
// fetched.
func (l *Listing) Previous() bool {
	ok, _ := l.update(func(p *query.Params) { *p = p.Previous() })
	return ok
}

// Next moves one page forward, also past the last page.
func (l *Listing) Next() bool {
	ok, _ := l.update(func(p *query.Params) { *p = p.Next() })
	return ok
}

// Withdraw retracts the user's application to a job. The listing itself is
// left as it is.
func (l *Listing) Withdraw(ctx context.Context, jobID string) error {
	return Withdraw(ctx, l.api, jobID, l.logger)
}

// Close cancels in-flight fetches and waits for them to return. No view is
// published afterwards.
func (l *Listing) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}

// Wait blocks until every fetch issued so far has settled.
func (l *Listing) Wait() {
	l.wg.Wait()
}

// update applies a change to the parameters and fetches when they differ.
// It reports whether a fetch was issued.
func (l *Listing) update(change func(p *query.Params)) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, nil
	}

	next := l.params
	change(&next)
	if next == l.params {
		return false, nil
	}
	if err := next.Validate(); err != nil {
		return false, err
	}

	l.params = next
	l.fetchLocked()
	return true, nil
}

func (l *Listing) fetchLocked() {
	l.seq++
	seq, params := l.seq, l.params
	l.publishLocked(loadingView(params))

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		page, err := listJobs(l.ctx, l.api, params)

		l.mu.Lock()
		defer l.mu.Unlock()

		if l.closed {
			return
		}
		if seq != l.seq {
			l.logger.Debug().
				Int("page", params.Page).
				Msg("Dropping stale listing response")
			return
		}

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				l.logger.Warn().
					Err(err).
					Str("params", params.Encode()).
					Msg("Failed to load jobs")
			}
			l.publishLocked(failedView(params, err))
			return
		}

		l.logger.Debug().
			Int("page", params.Page).
			Int("jobs", len(page.Data)).
			Int("total", page.Meta.Total).
			Msg("Jobs loaded")
		l.publishLocked(loadedView(params, page))
	}()
}

// listJobs calls the API and reports a panic in it as an error, so a
// misbehaving backend fails the view instead of the process.
func listJobs(ctx context.Context, api jobapi.API, params query.Params) (page *model.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, fmt.Errorf("listing: loading jobs: %v", r)
		}
	}()
	return api.ListJobs(ctx, params)
}

func (l *Listing) publishLocked(v View) {
	l.view = v
	l.onChange(v)
}

// Fetch performs a single synchronous fetch and returns the resulting view.
// Server-rendered pages use it: the request itself is the pending state.
func Fetch(ctx context.Context, api jobapi.API, params query.Params, logger arbor.ILogger) View {
	page, err := listJobs(ctx, api, params)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("params", params.Encode()).
			Msg("Failed to load jobs")
		return failedView(params, err)
	}
	return loadedView(params, page)
}

// Withdraw retracts an application outside a live session. There is no
// optimistic update and no retry.
func Withdraw(ctx context.Context, api jobapi.API, jobID string, logger arbor.ILogger) error {
	if err := api.WithdrawApplication(ctx, jobID); err != nil {
		logger.Warn().
			Err(err).
			Str("job_id", jobID).
			Msg("Withdraw failed")
		return err
	}
	logger.Info().Str("job_id", jobID).Msg("Application withdrawn")
	return nil
}

// AppliedPanel loads the jobs the signed-in user has applied to. It is
// independent of the listing and fetches on its own.
type AppliedPanel struct {
	api    jobapi.API
	logger arbor.ILogger
}

// NewAppliedPanel creates an AppliedPanel.
func NewAppliedPanel(api jobapi.API, logger arbor.ILogger) *AppliedPanel {
	return &AppliedPanel{api: api, logger: logger}
}

// Load fetches the panel's content.
func (p *AppliedPanel) Load(ctx context.Context) AppliedView {
	if session.UserFromContext(ctx) == nil {
		return AppliedView{Status: AppliedSignedOut}
	}

	jobs, err := p.api.AppliedJobs(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to load applied jobs")
		return AppliedView{Status: AppliedFailed}
	}
	return AppliedView{Status: AppliedLoaded, Jobs: jobs}
}
