package storage

import (
	"fmt"

	"github.com/goodtune/pesonet/internal/shop"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// DefaultStations is how many stations a fresh shop starts with.
const DefaultStations = 8

// Defaults describes the state written on first start.
type Defaults struct {
	AdminPassword string
	StaffPassword string
	StationRate   decimal.Decimal
}

// Bootstrap returns a function building the default state from d.
func Bootstrap(d Defaults) func() (*shop.State, error) {
	return func() (*shop.State, error) {
		adminHash, err := bcrypt.GenerateFromPassword([]byte(d.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		staffHash, err := bcrypt.GenerateFromPassword([]byte(d.StaffPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash staff password: %w", err)
		}

		st := &shop.State{
			Accounts: []shop.Account{
				{ID: 1, Name: "Administrator", Username: "admin", PasswordHash: string(adminHash), Role: shop.RoleAdmin},
				{ID: 2, Name: "Staff", Username: "staff", PasswordHash: string(staffHash), Role: shop.RoleStaff},
			},
			Stations: make([]shop.Station, 0, DefaultStations),
			Products: []shop.Product{
				{ID: 1, Name: "Bottled Water", Price: decimal.NewFromInt(20), Stock: 30},
				{ID: 2, Name: "Snack", Price: decimal.NewFromInt(35), Stock: 20},
			},
			Sessions:     []shop.Session{},
			Transactions: []shop.Transaction{},
		}
		for i := 1; i <= DefaultStations; i++ {
			st.Stations = append(st.Stations, shop.Station{
				ID:          i,
				Name:        fmt.Sprintf("PC-%02d", i),
				RatePerHour: d.StationRate,
			})
		}
		return st, nil
	}
}
