package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goodtune/pesonet/internal/shop"
)

// listTransactions returns the newest transactions, newest first.
// ?kind=Session or ?kind=Product narrows the list.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := s.config.RecentTransactions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	var preds []shop.Predicate
	switch kind := shop.Kind(r.URL.Query().Get("kind")); kind {
	case "":
	case shop.KindSession, shop.KindProduct:
		preds = append(preds, shop.OfKind(kind))
	default:
		writeError(w, http.StatusBadRequest, "Invalid kind, expected Session or Product")
		return
	}

	transactions := s.reports.Recent(s.shop.Ledger(), limit, preds...)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// summary reports every income window. ?date=YYYY-MM-DD moves the reference
// point to the end of that day.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	now := s.shop.Now().In(s.reports.Location)
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, s.reports.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		now = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	writeJSON(w, http.StatusOK, s.reports.Summarize(s.shop.Ledger(), now, s.config.RecentTransactions))
}
