package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rsilvagit/joblist/internal/listing"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
	"github.com/rsilvagit/joblist/internal/web"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client actions.
const (
	actionSetSearchField = "setSearchField"
	actionSetSearchQuery = "setSearchQuery"
	actionSetPerPage     = "setPerPage"
	actionSetOrder       = "setOrder"
	actionPrevious       = "previous"
	actionNext           = "next"
	actionWithdraw       = "withdraw"
	actionRefreshApplied = "refreshApplied"
)

// Server message types.
const (
	typeListing = "listing"
	typeApplied = "applied"
	typeError   = "error"
)

type liveRequest struct {
	Action    string `json:"action"`
	Value     string `json:"value,omitempty"`
	Field     string `json:"field,omitempty"`
	Direction string `json:"direction,omitempty"`
	JobID     string `json:"jobId,omitempty"`
}

type liveMessage struct {
	Type       string `json:"type"`
	Status     string `json:"status,omitempty"`
	Page       int    `json:"page,omitempty"`
	TotalPages int    `json:"totalPages,omitempty"`
	Query      string `json:"query,omitempty"`
	HTML       string `json:"html,omitempty"`
	Message    string `json:"message,omitempty"`
}

// GET /ws
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("request_id", requestID(r.Context())).
			Msg("WebSocket upgrade failed")
		return
	}

	newLiveSession(s, conn, r, params).run()
}

// liveSession drives one Listing over one websocket. Listing views are
// coalesced: a slow client only ever receives the newest one.
type liveSession struct {
	srv  *Server
	conn *websocket.Conn
	data web.PageData

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	listing *listing.Listing
	views   chan listing.View
	msgs    chan liveMessage
}

func newLiveSession(s *Server, conn *websocket.Conn, r *http.Request, params query.Params) *liveSession {
	ctx, cancel := context.WithCancel(r.Context())
	ls := &liveSession{
		srv:    s,
		conn:   conn,
		data:   s.pageData(r, listing.View{}, listing.AppliedView{}),
		ctx:    ctx,
		cancel: cancel,
		views:  make(chan listing.View, 1),
		msgs:   make(chan liveMessage, 8),
	}
	ls.listing = listing.New(ctx, s.api, params, s.logger, ls.publish)
	return ls
}

// publish keeps only the newest view in the channel. The Listing calls it
// under its lock, so there is a single sender at a time.
func (ls *liveSession) publish(v listing.View) {
	select {
	case <-ls.views:
	default:
	}
	ls.views <- v
}

func (ls *liveSession) run() {
	logger := ls.srv.logger
	id := requestID(ls.ctx)
	logger.Debug().Str("request_id", id).Msg("Live session started")

	ls.wg.Add(1)
	go ls.writeLoop()

	ls.listing.Start()
	ls.loadApplied()

	ls.conn.SetReadLimit(4096)
	_ = ls.conn.SetReadDeadline(time.Now().Add(pongWait))
	ls.conn.SetPongHandler(func(string) error {
		return ls.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req liveRequest
		if err := ls.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Str("request_id", id).Msg("Live session read failed")
			}
			break
		}
		ls.handle(req)
	}

	ls.cancel()
	ls.listing.Close()
	ls.wg.Wait()
	ls.conn.Close()
	logger.Debug().Str("request_id", id).Msg("Live session closed")
}

func (ls *liveSession) handle(req liveRequest) {
	var err error
	switch req.Action {
	case actionSetSearchField:
		_, err = ls.listing.SetSearchField(query.SearchField(req.Value))
	case actionSetSearchQuery:
		_, err = ls.listing.SetSearchQuery(req.Value)
	case actionSetPerPage:
		var n int
		if n, err = strconv.Atoi(req.Value); err == nil {
			_, err = ls.listing.SetPerPage(n)
		}
	case actionSetOrder:
		_, err = ls.listing.SetOrder(req.Field, query.Direction(req.Direction))
	case actionPrevious:
		ls.listing.Previous()
	case actionNext:
		ls.listing.Next()
	case actionWithdraw:
		ls.withdraw(req.JobID)
		return
	case actionRefreshApplied:
		ls.loadApplied()
		return
	default:
		ls.send(liveMessage{Type: typeError, Message: "unknown action " + strconv.Quote(req.Action)})
		return
	}

	if err != nil {
		ls.srv.logger.Debug().
			Err(err).
			Str("action", req.Action).
			Msg("Rejected live input")
		ls.send(liveMessage{Type: typeError, Message: ls.data.Tr.T("Invalid filter")})
	}
}

// withdraw runs in the background so input handling never waits on the jobs
// service. The applied panel is reloaded afterwards; the listing is not.
func (ls *liveSession) withdraw(jobID string) {
	if session.UserFromContext(ls.ctx) == nil {
		ls.send(liveMessage{Type: typeError, Message: ls.data.Tr.T("Sign in to see your applications")})
		return
	}

	ls.wg.Add(1)
	go func() {
		defer ls.wg.Done()
		if err := ls.listing.Withdraw(ls.ctx, jobID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			ls.send(liveMessage{Type: typeError, Message: ls.data.Tr.T("Withdraw failed")})
		}
		ls.sendApplied(ls.srv.applied.Load(ls.ctx))
	}()
}

func (ls *liveSession) loadApplied() {
	if session.UserFromContext(ls.ctx) == nil {
		ls.sendApplied(listing.AppliedView{Status: listing.AppliedSignedOut})
		return
	}

	ls.wg.Add(1)
	go func() {
		defer ls.wg.Done()
		ls.sendApplied(ls.srv.applied.Load(ls.ctx))
	}()
}

func (ls *liveSession) sendApplied(v listing.AppliedView) {
	data := ls.data
	data.Applied = v
	html, err := ls.srv.renderer.String("applied", data)
	if err != nil {
		ls.srv.logger.Error().Err(err).Msg("Failed to render applied panel")
		return
	}
	ls.send(liveMessage{Type: typeApplied, Status: v.Status.String(), HTML: html})
}

// send queues a message for the writer. It gives up when the session ends.
func (ls *liveSession) send(msg liveMessage) {
	select {
	case ls.msgs <- msg:
	case <-ls.ctx.Done():
	}
}

func (ls *liveSession) listingMessage(v listing.View) (liveMessage, error) {
	data := ls.data
	data.View = v
	html, err := ls.srv.renderer.String("listing", data)
	if err != nil {
		return liveMessage{}, err
	}
	return liveMessage{
		Type:       typeListing,
		Status:     v.Status.String(),
		Page:       v.Params.Page,
		TotalPages: v.TotalPages,
		Query:      v.Params.Encode(),
		HTML:       html,
	}, nil
}

// writeLoop is the only writer on the connection.
func (ls *liveSession) writeLoop() {
	defer ls.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var msg liveMessage
		select {
		case <-ls.ctx.Done():
			_ = ls.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			ls.conn.Close()
			return
		case <-ticker.C:
			_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ls.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ls.fail(err)
				return
			}
			continue
		case v := <-ls.views:
			m, err := ls.listingMessage(v)
			if err != nil {
				ls.srv.logger.Error().Err(err).Msg("Failed to render listing")
				continue
			}
			msg = m
		case msg = <-ls.msgs:
		}

		_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ls.conn.WriteJSON(msg); err != nil {
			ls.fail(err)
			return
		}
	}
}

// fail ends the session after a write error. Closing the connection
// unblocks the reader.
func (ls *liveSession) fail(err error) {
	ls.srv.logger.Debug().Err(err).Msg("Live session write failed")
	ls.cancel()
	ls.conn.Close()
}
