package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodtune/pesonet/internal/metrics"
)

// Sessions returns every session, active and closed, in start order.
func (s *Shop) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().Sessions
}

// ActiveSessions returns the sessions that have not been stopped.
func (s *Shop) ActiveSessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0)
	for _, sess := range s.state.Sessions {
		if sess.Active() {
			out = append(out, sess)
		}
	}
	return out
}

// StartSession opens a session on a free station. The station's current
// rate is copied into the session.
func (s *Shop) StartSession(ctx context.Context, stationID int, customer string) (Session, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		customer = WalkIn
	}

	var started Session
	err := s.mutate(ctx, "start session", func(st *State) error {
		i := stationIndex(st, stationID)
		if i < 0 {
			return notFound("station", stationID)
		}
		c := &st.Stations[i]
		if c.Occupied {
			return conflict("station", stationID, "already occupied")
		}

		started = Session{
			ID:          s.newID(),
			StationID:   c.ID,
			Customer:    customer,
			StartedAt:   s.clock.Now(),
			RatePerHour: c.RatePerHour,
		}
		c.Occupied = true
		st.Sessions = append(st.Sessions, started)
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	metrics.SessionsStarted.Inc()
	s.logger.Info().
		Str("session_id", started.ID).
		Int("station_id", stationID).
		Str("customer", started.Customer).
		Str("rate", started.RatePerHour.StringFixed(2)).
		Msg("Session started")
	return started, nil
}

// StopSession closes an active session, frees its station and bills it.
// Stopping a session that is unknown or already closed is a NotFoundError.
func (s *Shop) StopSession(ctx context.Context, sessionID string) (Receipt, error) {
	var receipt Receipt
	err := s.mutate(ctx, "stop session", func(st *State) error {
		j := -1
		for k := range st.Sessions {
			if st.Sessions[k].ID == sessionID && st.Sessions[k].Active() {
				j = k
				break
			}
		}
		if j < 0 {
			return notFound("active session", sessionID)
		}
		sess := &st.Sessions[j]

		end := s.clock.Now()
		sess.EndedAt = &end

		name := fmt.Sprintf("Station %d", sess.StationID)
		if i := stationIndex(st, sess.StationID); i >= 0 {
			st.Stations[i].Occupied = false
			name = st.Stations[i].Name
		}

		amount := sess.Due(end)
		t := s.appendTransaction(st, end, KindSession, amount, fmt.Sprintf("%s - %s", name, sess.Customer))

		closed := *sess
		receipt = Receipt{Transaction: t, Session: &closed}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	amount, _ := receipt.Amount().Float64()
	metrics.SessionsStopped.Inc()
	metrics.IncomeTotal.WithLabelValues(string(KindSession)).Add(amount)

	s.logger.Info().
		Str("session_id", sessionID).
		Int("station_id", receipt.Session.StationID).
		Int64("minutes", BilledMinutes(receipt.Session.Duration(*receipt.Session.EndedAt))).
		Str("amount", receipt.Amount().StringFixed(2)).
		Msg("Session stopped")
	return receipt, nil
}
