package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rsilvagit/joblist/internal/web"
)

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// keep the fixed /jobs/* paths before /jobs/{id}
	r.HandleFunc("/jobs", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/jobs/listing", s.handleListing).Methods(http.MethodGet)
	r.HandleFunc("/jobs/applied", s.handleApplied).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}/withdraw", s.handleWithdraw).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleLive).Methods(http.MethodGet)

	if s.cfg.Demo.Enabled {
		r.HandleFunc("/dev/login", s.handleDevLogin).Methods(http.MethodGet)
	}

	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))),
	).Methods(http.MethodGet)

	return r
}
