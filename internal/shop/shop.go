package shop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/pesonet/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Persister writes the whole state document after every mutation.
type Persister interface {
	Save(ctx context.Context, state *State) error
}

// Receipt describes a completed session stop or sale.
type Receipt struct {
	Transaction Transaction `json:"transaction"`
	Session     *Session    `json:"session,omitempty"`
	Product     *Product    `json:"product,omitempty"`
}

// Amount returns the charged amount.
func (r Receipt) Amount() decimal.Decimal {
	return r.Transaction.Amount
}

// Shop owns the aggregate state and applies every operation against it.
// Operations are serialized; each successful mutation is persisted before
// the call returns.
type Shop struct {
	mu        sync.Mutex
	state     *State
	persister Persister
	clock     Clock
	newID     func() string
	logger    zerolog.Logger
}

// Option configures a Shop.
type Option func(*Shop)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Shop) { s.clock = c }
}

// WithIDGenerator replaces the UUID generator used for sessions and
// transactions.
func WithIDGenerator(fn func() string) Option {
	return func(s *Shop) { s.newID = fn }
}

// New creates a Shop over state. The state is owned by the Shop from here on.
func New(state *State, persister Persister, logger zerolog.Logger, opts ...Option) *Shop {
	if state == nil {
		state = &State{}
	}
	s := &Shop{
		state:     state,
		persister: persister,
		clock:     RealClock{},
		newID:     func() string { return uuid.NewString() },
		logger:    logger.With().Str("component", "shop").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updateOccupancy()
	return s
}

// State returns a deep copy of the current state.
func (s *Shop) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Ledger returns a snapshot of the transaction history.
func (s *Shop) Ledger() Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewLedger(s.state.Transactions)
}

// Now returns the shop clock's current time.
func (s *Shop) Now() time.Time {
	return s.clock.Now()
}

// mutate runs fn against the live state and persists the result. If fn or
// the save fails, the state is restored to what it was before the call.
func (s *Shop) mutate(ctx context.Context, op string, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.Clone()
	if err := fn(s.state); err != nil {
		s.state = before
		return err
	}

	if s.persister != nil {
		if err := s.persister.Save(ctx, s.state); err != nil {
			s.state = before
			metrics.PersistErrors.Inc()
			s.logger.Error().Err(err).Str("op", op).Msg("Failed to persist state, change discarded")
			return fmt.Errorf("%s: save state: %w", op, err)
		}
	}

	s.updateOccupancy()
	return nil
}

func (s *Shop) updateOccupancy() {
	n := 0
	for _, c := range s.state.Stations {
		if c.Occupied {
			n++
		}
	}
	metrics.StationsOccupied.Set(float64(n))
}

func (s *Shop) appendTransaction(st *State, at time.Time, kind Kind, amount decimal.Decimal, details string) Transaction {
	t := Transaction{
		ID:        s.newID(),
		Timestamp: at,
		Kind:      kind,
		Amount:    amount,
		Details:   details,
	}
	st.Transactions = append(st.Transactions, t)
	return t
}
