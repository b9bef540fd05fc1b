package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is a read-only view of the transaction history in insertion order.
// The only way to add an entry is through a completed session or a sale.
type Ledger struct {
	entries []Transaction
}

// NewLedger wraps a copy of entries.
func NewLedger(entries []Transaction) Ledger {
	return Ledger{entries: append([]Transaction(nil), entries...)}
}

// Predicate selects ledger entries.
type Predicate func(Transaction) bool

// OfKind matches entries of kind k.
func OfKind(k Kind) Predicate {
	return func(t Transaction) bool { return t.Kind == k }
}

// Between matches entries with from <= timestamp < to.
func Between(from, to time.Time) Predicate {
	return func(t Transaction) bool {
		return !t.Timestamp.Before(from) && t.Timestamp.Before(to)
	}
}

// OnDate matches entries whose timestamp falls on the calendar date of date
// in loc. A nil loc means time.Local.
func OnDate(date time.Time, loc *time.Location) Predicate {
	if loc == nil {
		loc = time.Local
	}
	d := date.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Between(from, from.AddDate(0, 0, 1))
}

// Len returns the number of entries.
func (l Ledger) Len() int { return len(l.entries) }

// All returns a copy of every entry.
func (l Ledger) All() []Transaction {
	return append([]Transaction(nil), l.entries...)
}

// Filter returns the entries matching every predicate, in insertion order.
func (l Ledger) Filter(preds ...Predicate) []Transaction {
	out := make([]Transaction, 0)
	for _, t := range l.entries {
		if matchAll(t, preds) {
			out = append(out, t)
		}
	}
	return out
}

// Sum totals the amounts of the entries matching every predicate, along with
// how many matched.
func (l Ledger) Sum(preds ...Predicate) (decimal.Decimal, int) {
	total := decimal.Zero
	n := 0
	for _, t := range l.entries {
		if matchAll(t, preds) {
			total = total.Add(t.Amount)
			n++
		}
	}
	return total, n
}

func matchAll(t Transaction, preds []Predicate) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}
