package shop

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WalkIn is the customer label used when none is given at session start.
const WalkIn = "Walk-in"

// Kind identifies what produced a transaction.
type Kind string

const (
	KindSession Kind = "Session"
	KindProduct Kind = "Product"
)

// Role is an account role. Accounts are carried in the state document but
// only the HTTP front end consults them.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// Account is an operator login.
type Account struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
}

// Station is a billable timed-use computer.
type Station struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Occupied    bool            `json:"occupied"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
}

// Product is a retail item with a stock count.
type Product struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// Session is one continuous occupancy of a station. RatePerHour is copied
// from the station when the session starts and never changes afterwards.
type Session struct {
	ID          string          `json:"id"`
	StationID   int             `json:"station_id"`
	Customer    string          `json:"customer"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
}

// Active reports whether the session has not been stopped yet.
func (s Session) Active() bool {
	return s.EndedAt == nil
}

// Duration returns the elapsed time, measured to now for active sessions.
func (s Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return end.Sub(s.StartedAt)
}

// Due returns the charge for the session as of now. For closed sessions now
// is ignored.
func (s Session) Due(now time.Time) decimal.Decimal {
	return Charge(s.Duration(now), s.RatePerHour)
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Details   string          `json:"details"`
}

// State is the whole aggregate persisted as a single document.
type State struct {
	Accounts     []Account     `json:"accounts"`
	Stations     []Station     `json:"stations"`
	Products     []Product     `json:"products"`
	Sessions     []Session     `json:"sessions"`
	Transactions []Transaction `json:"transactions"`
}

// Clone returns a deep copy of the state.
func (st *State) Clone() *State {
	out := &State{
		Accounts:     append([]Account(nil), st.Accounts...),
		Stations:     append([]Station(nil), st.Stations...),
		Products:     append([]Product(nil), st.Products...),
		Sessions:     make([]Session, len(st.Sessions)),
		Transactions: append([]Transaction(nil), st.Transactions...),
	}
	for i, s := range st.Sessions {
		if s.EndedAt != nil {
			end := *s.EndedAt
			s.EndedAt = &end
		}
		out.Sessions[i] = s
	}
	return out
}

// RepairOccupancy makes every station's occupied flag agree with whether it
// has an active session and returns the IDs of the stations it changed.
func (st *State) RepairOccupancy() []int {
	active := make(map[int]bool)
	for _, s := range st.Sessions {
		if s.Active() {
			active[s.StationID] = true
		}
	}

	var repaired []int
	for i := range st.Stations {
		c := &st.Stations[i]
		if c.Occupied != active[c.ID] {
			c.Occupied = active[c.ID]
			repaired = append(repaired, c.ID)
		}
	}
	return repaired
}

// Validate checks the cross-entity invariants and returns one error per
// violation found.
func (st *State) Validate() []error {
	var errs []error

	active := make(map[int]int)
	closed := 0
	for _, s := range st.Sessions {
		if s.Active() {
			active[s.StationID]++
		} else {
			closed++
		}
	}

	for _, c := range st.Stations {
		n := active[c.ID]
		if c.Occupied && n != 1 {
			errs = append(errs, fmt.Errorf("station %d is occupied with %d active sessions", c.ID, n))
		}
		if !c.Occupied && n != 0 {
			errs = append(errs, fmt.Errorf("station %d is free with %d active sessions", c.ID, n))
		}
	}

	billed := 0
	for _, t := range st.Transactions {
		if t.Kind == KindSession {
			billed++
		}
	}
	if billed != closed {
		errs = append(errs, fmt.Errorf("%d session transactions for %d closed sessions", billed, closed))
	}

	for _, p := range st.Products {
		if p.Stock < 0 {
			errs = append(errs, fmt.Errorf("product %d has negative stock %d", p.ID, p.Stock))
		}
	}

	return errs
}
