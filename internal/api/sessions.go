package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/shopspring/decimal"
)

type startSessionRequest struct {
	StationID int    `json:"station_id"`
	Customer  string `json:"customer"`
}

type saleRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// sessionView adds the running charge to a session.
type sessionView struct {
	shop.Session
	ElapsedSeconds int64           `json:"elapsed_seconds"`
	Due            decimal.Decimal `json:"due"`
}

func newSessionView(sess shop.Session, now time.Time) sessionView {
	return sessionView{
		Session:        sess,
		ElapsedSeconds: int64(sess.Duration(now) / time.Second),
		Due:            sess.Due(now),
	}
}

// listSessions returns all sessions, or only running ones with ?active=true.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.shop.Sessions()
	if r.URL.Query().Get("active") == "true" {
		sessions = s.shop.ActiveSessions()
	}

	now := s.shop.Now()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, newSessionView(sess, now))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": views,
		"count":    len(views),
	})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.shop.StartSession(r.Context(), req.StationID, req.Customer)
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(sess, sess.StartedAt))
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.shop.StopSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) sell(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	receipt, err := s.shop.Sell(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeShopError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}
