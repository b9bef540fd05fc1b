package shop

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// BilledMinutes returns the number of whole minutes charged for d. Any
// started minute counts as a full one; zero or negative durations bill
// nothing.
func BilledMinutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Minute - 1) / time.Minute)
}

// Charge computes the amount due for d at ratePerHour, rounded to cents
// half away from zero.
func Charge(d time.Duration, ratePerHour decimal.Decimal) decimal.Decimal {
	minutes := decimal.NewFromInt(BilledMinutes(d))
	return minutes.Mul(ratePerHour).Div(sixty).Round(2)
}

// parseAmount parses a non-negative decimal such as a rate or a price.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, invalid(field, raw, "value is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid(field, raw, "not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, raw, "must not be negative")
	}
	return d, nil
}

// parseCount parses a non-negative integer such as a stock level.
func parseCount(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalid(field, raw, "value is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid(field, raw, "not a whole number")
	}
	if n < 0 {
		return 0, invalid(field, raw, "must not be negative")
	}
	return n, nil
}
