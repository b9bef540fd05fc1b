package shop

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// StationEdit carries optional changes to a station. Empty fields are left
// unchanged.
type StationEdit struct {
	Name string
	Rate string
}

// Stations returns every station in registry order.
func (s *Shop) Stations() []Station {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Station(nil), s.state.Stations...)
}

// FreeStations returns the stations a session can be started on.
func (s *Shop) FreeStations() []Station {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Station, 0, len(s.state.Stations))
	for _, c := range s.state.Stations {
		if !c.Occupied {
			out = append(out, c)
		}
	}
	return out
}

// Station looks up a station by ID.
func (s *Shop) Station(id int) (Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := stationIndex(s.state, id)
	if i < 0 {
		return Station{}, notFound("station", id)
	}
	return s.state.Stations[i], nil
}

// AddStation registers a new free station with the next available ID.
func (s *Shop) AddStation(ctx context.Context, name, rate string) (Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Station{}, invalid("name", name, "value is required")
	}
	r, err := parseAmount("rate", rate)
	if err != nil {
		return Station{}, err
	}

	var added Station
	err = s.mutate(ctx, "add station", func(st *State) error {
		added = Station{ID: nextStationID(st), Name: name, RatePerHour: r}
		st.Stations = append(st.Stations, added)
		return nil
	})
	if err != nil {
		return Station{}, err
	}

	s.logger.Info().
		Int("station_id", added.ID).
		Str("name", added.Name).
		Str("rate", added.RatePerHour.StringFixed(2)).
		Msg("Station added")
	return added, nil
}

// EditStation applies the provided fields of edit. A rate that is provided
// but does not parse fails the whole edit.
func (s *Shop) EditStation(ctx context.Context, id int, edit StationEdit) (Station, error) {
	name := strings.TrimSpace(edit.Name)
	rateGiven := strings.TrimSpace(edit.Rate) != ""
	var r decimal.Decimal
	if rateGiven {
		v, err := parseAmount("rate", edit.Rate)
		if err != nil {
			return Station{}, err
		}
		r = v
	}

	var updated Station
	err := s.mutate(ctx, "edit station", func(st *State) error {
		i := stationIndex(st, id)
		if i < 0 {
			return notFound("station", id)
		}
		c := &st.Stations[i]
		if name != "" {
			c.Name = name
		}
		if rateGiven {
			c.RatePerHour = r
		}
		updated = *c
		return nil
	})
	if err != nil {
		return Station{}, err
	}

	s.logger.Info().
		Int("station_id", updated.ID).
		Str("name", updated.Name).
		Str("rate", updated.RatePerHour.StringFixed(2)).
		Msg("Station updated")
	return updated, nil
}

// RemoveStation deletes a station that has no active session.
func (s *Shop) RemoveStation(ctx context.Context, id int) error {
	err := s.mutate(ctx, "remove station", func(st *State) error {
		i := stationIndex(st, id)
		if i < 0 {
			return notFound("station", id)
		}
		if st.Stations[i].Occupied {
			return conflict("station", id, "cannot remove an occupied station")
		}
		st.Stations = append(st.Stations[:i], st.Stations[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("station_id", id).Msg("Station removed")
	return nil
}

func stationIndex(st *State, id int) int {
	for i, c := range st.Stations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func nextStationID(st *State) int {
	highest := 0
	for _, c := range st.Stations {
		if c.ID > highest {
			highest = c.ID
		}
	}
	return highest + 1
}
