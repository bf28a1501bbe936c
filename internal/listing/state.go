package listing

import (
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
)

// Status is the render state of the listing.
type Status int

const (
	Loading Status = iota
	Failed
	Loaded
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Failed:
		return "error"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// View is what the page renders. Jobs is only set when Loaded, so a
// pending or failed fetch never shows a previous page's cards.
type View struct {
	Status     Status
	Params     query.Params
	Jobs       []model.Job
	Total      int
	TotalPages int
	// Err is the cause of a failure. Logged, never rendered.
	Err error
}

func loadingView(p query.Params) View {
	return View{Status: Loading, Params: p}
}

func failedView(p query.Params, err error) View {
	return View{Status: Failed, Params: p, Err: err}
}

func loadedView(p query.Params, page *model.Page) View {
	return View{
		Status:     Loaded,
		Params:     p,
		Jobs:       page.Data,
		Total:      page.Meta.Total,
		TotalPages: query.TotalPages(page.Meta.Total, p.PerPage),
	}
}

// AppliedStatus is the render state of the applied-jobs panel.
type AppliedStatus int

const (
	AppliedLoading AppliedStatus = iota
	AppliedFailed
	AppliedLoaded
	// AppliedSignedOut means there is no user to fetch applications for.
	AppliedSignedOut
)

func (s AppliedStatus) String() string {
	switch s {
	case AppliedLoading:
		return "loading"
	case AppliedFailed:
		return "error"
	case AppliedLoaded:
		return "loaded"
	case AppliedSignedOut:
		return "signedOut"
	}
	return "unknown"
}

// AppliedView is what the applied-jobs panel renders.
type AppliedView struct {
	Status AppliedStatus
	Jobs   []model.Job
}

func (v View) IsLoading() bool { return v.Status == Loading }
func (v View) IsFailed() bool  { return v.Status == Failed }
func (v View) IsLoaded() bool  { return v.Status == Loaded }

func (v AppliedView) IsLoading() bool   { return v.Status == AppliedLoading }
func (v AppliedView) IsFailed() bool    { return v.Status == AppliedFailed }
func (v AppliedView) IsSignedOut() bool { return v.Status == AppliedSignedOut }
