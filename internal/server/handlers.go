package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rsilvagit/joblist/internal/jobapi"
	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
	"github.com/rsilvagit/joblist/internal/web"
)

const (
	noticeParam          = "notice"
	noticeWithdrawFailed = "withdraw-failed"
)

// notices maps the notice parameter to its message key.
var notices = map[string]string{
	noticeWithdrawFailed: "Withdraw failed",
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/jobs", http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// GET /jobs
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	// the listing and the applied panel are independent requests
	var (
		wg      sync.WaitGroup
		view    listing.View
		applied listing.AppliedView
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		view = listing.Fetch(ctx, s.api, params, s.logger)
	}()
	go func() {
		defer wg.Done()
		applied = s.applied.Load(ctx)
	}()
	wg.Wait()

	data := s.pageData(r, view, applied)
	if key, ok := notices[r.URL.Query().Get(noticeParam)]; ok {
		data.Notice = data.Tr.T(key)
	}
	s.render(w, r, s.renderer.Page, data)
}

// GET /jobs/listing
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}
	view := listing.Fetch(r.Context(), s.api, params, s.logger)
	s.render(w, r, s.renderer.Listing, s.pageData(r, view, listing.AppliedView{}))
}

// GET /jobs/applied
func (s *Server) handleApplied(w http.ResponseWriter, r *http.Request) {
	applied := s.applied.Load(r.Context())
	s.render(w, r, s.renderer.Applied, s.pageData(r, listing.View{}, applied))
}

// POST /jobs/{id}/withdraw
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if session.UserFromContext(ctx) == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	target := returnURL(r.FormValue("return"))
	jobID := mux.Vars(r)["id"]

	if err := listing.Withdraw(ctx, s.api, jobID, s.logger); err != nil {
		if errors.Is(err, jobapi.ErrUnauthenticated) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		q := target.Query()
		q.Set(noticeParam, noticeWithdrawFailed)
		target.RawQuery = q.Encode()
	}

	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// GET /dev/login issues a session for the configured demo user.
func (s *Server) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	user := &model.User{
		ID:    s.cfg.Demo.UserID,
		Email: s.cfg.Demo.Email,
		Token: uuid.NewString(),
	}
	if err := s.sessions.Put(r.Context(), id, user); err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", requestID(r.Context())).
			Msg("Failed to create demo session")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info().Str("user_id", user.ID).Msg("Demo session created")
	http.Redirect(w, r, "/jobs", http.StatusSeeOther)
}

// parseParams reads the listing parameters and answers 400 when they are
// invalid.
func (s *Server) parseParams(w http.ResponseWriter, r *http.Request) (query.Params, bool) {
	params, err := query.Parse(r.URL.Query(), query.Default())
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("request_id", requestID(r.Context())).
			Msg("Rejected listing parameters")
		http.Error(w, s.translator(r.Context()).T("Invalid filter"), http.StatusBadRequest)
		return params, false
	}
	return params, true
}

func (s *Server) pageData(r *http.Request, view listing.View, applied listing.AppliedView) web.PageData {
	return web.PageData{
		Tr:      s.translator(r.Context()),
		User:    session.UserFromContext(r.Context()),
		View:    view,
		Applied: applied,
		Demo:    s.cfg.Demo.Enabled,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, fn func(w io.Writer, d web.PageData) error, data web.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fn(w, data); err != nil {
		s.logger.Error().
			Err(err).
			Str("request_id", requestID(r.Context())).
			Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// returnURL accepts only local listing URLs as redirect targets.
func returnURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path != "/jobs" {
		return &url.URL{Path: "/jobs"}
	}
	return &url.URL{Path: u.Path, RawQuery: u.RawQuery}
}
