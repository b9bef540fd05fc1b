package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goodtune/pesonet/internal/shop"
	"github.com/rs/zerolog"
)

// Gateway loads and saves the shop state through a Store.
type Gateway struct {
	store     Store
	bootstrap func() (*shop.State, error)
	logger    zerolog.Logger
}

// NewGateway returns a Gateway over store. bootstrap builds the state used
// when the document is missing or unreadable.
func NewGateway(store Store, bootstrap func() (*shop.State, error), logger zerolog.Logger) *Gateway {
	return &Gateway{
		store:     store,
		bootstrap: bootstrap,
		logger:    logger.With().Str("component", "storage").Logger(),
	}
}

// Load returns the stored state. A missing document yields the bootstrap
// state, which is saved immediately. An unreadable document yields the
// bootstrap state and a warning; the broken document is left in place until
// the next save overwrites it. Stations whose occupied flag disagrees with
// their sessions are repaired in memory.
func (g *Gateway) Load(ctx context.Context) (*shop.State, error) {
	data, err := g.store.Read(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		g.logger.Info().Msg("No state document found, writing defaults")
		st, err := g.bootstrap()
		if err != nil {
			return nil, fmt.Errorf("bootstrap state: %w", err)
		}
		if err := g.Save(ctx, st); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to save default state")
		}
		return st, nil
	case err != nil:
		g.logger.Warn().Err(err).Msg("Failed to read state document, using defaults")
		return g.bootstrap()
	}

	st, err := Decode(data)
	if err != nil {
		g.logger.Warn().Err(err).Msg("State document is corrupt, using defaults")
		return g.bootstrap()
	}

	for _, id := range st.RepairOccupancy() {
		g.logger.Warn().Int("station_id", id).Msg("Repaired station occupancy to match active sessions")
	}
	for _, problem := range st.Validate() {
		g.logger.Warn().Err(problem).Msg("State document is inconsistent")
	}

	g.logger.Debug().
		Int("stations", len(st.Stations)).
		Int("products", len(st.Products)).
		Int("sessions", len(st.Sessions)).
		Int("transactions", len(st.Transactions)).
		Msg("Loaded state document")
	return st, nil
}

// Save writes st as the new state document.
func (g *Gateway) Save(ctx context.Context, st *shop.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := g.store.Write(ctx, data); err != nil {
		return fmt.Errorf("write state document: %w", err)
	}

	if r, ok := g.store.(Revisioner); ok {
		if rev, err := r.Revision(ctx); err == nil {
			g.logger.Debug().Uint64("revision", rev).Int("bytes", len(data)).Msg("Saved state document")
		}
	}
	return nil
}

// Encode serializes a state document.
func Encode(st *shop.State) ([]byte, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// Decode parses a state document. Absent collections decode as empty.
func Decode(data []byte) (*shop.State, error) {
	var st shop.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if st.Accounts == nil {
		st.Accounts = []shop.Account{}
	}
	if st.Stations == nil {
		st.Stations = []shop.Station{}
	}
	if st.Products == nil {
		st.Products = []shop.Product{}
	}
	if st.Sessions == nil {
		st.Sessions = []shop.Session{}
	}
	if st.Transactions == nil {
		st.Transactions = []shop.Transaction{}
	}
	return &st, nil
}
