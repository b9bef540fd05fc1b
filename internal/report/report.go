// Package report aggregates the transaction ledger into calendar-window
// income and traffic summaries. Every figure is recomputed from the full
// ledger on each call.
package report

import (
	"sort"
	"time"

	"github.com/goodtune/pesonet/internal/shop"
	"github.com/shopspring/decimal"
)

// DefaultRecent is how many transactions a summary lists.
const DefaultRecent = 20

// Engine holds the calendar settings used to place transactions on dates.
type Engine struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// New returns an Engine for the given location and first day of week. A nil
// location means time.Local.
func New(loc *time.Location, weekStart time.Weekday) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{Location: loc, WeekStart: weekStart}
}

// DailySummary is the income and number of completed sessions on one date.
type DailySummary struct {
	Date     time.Time       `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Sessions int             `json:"sessions"`
}

// Summary combines every report window for a reference time.
type Summary struct {
	Now     time.Time          `json:"now"`
	Today   DailySummary       `json:"today"`
	Week    decimal.Decimal    `json:"week"`
	Month   decimal.Decimal    `json:"month"`
	Year    decimal.Decimal    `json:"year"`
	AllTime decimal.Decimal    `json:"all_time"`
	Recent  []shop.Transaction `json:"recent"`
}

// Daily returns the income on the calendar date of date and the number of
// session transactions recorded that day.
func (e *Engine) Daily(l shop.Ledger, date time.Time) DailySummary {
	day := shop.OnDate(date, e.Location)

	income, _ := l.Sum(day)
	_, sessions := l.Sum(day, shop.OfKind(shop.KindSession))

	return DailySummary{Date: e.startOfDay(date), Income: income, Sessions: sessions}
}

// Week returns the income from the start of the week containing date
// through the end of date.
func (e *Engine) Week(l shop.Ledger, date time.Time) decimal.Decimal {
	to := e.startOfDay(date).AddDate(0, 0, 1)
	income, _ := l.Sum(shop.Between(e.StartOfWeek(date), to))
	return income
}

// Month returns the income in the calendar month of date.
func (e *Engine) Month(l shop.Ledger, date time.Time) decimal.Decimal {
	d := date.In(e.Location)
	from := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, e.Location)
	income, _ := l.Sum(shop.Between(from, from.AddDate(0, 1, 0)))
	return income
}

// Year returns the income in the calendar year of date.
func (e *Engine) Year(l shop.Ledger, date time.Time) decimal.Decimal {
	d := date.In(e.Location)
	from := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, e.Location)
	income, _ := l.Sum(shop.Between(from, from.AddDate(1, 0, 0)))
	return income
}

// AllTime returns the sum of every transaction.
func (e *Engine) AllTime(l shop.Ledger) decimal.Decimal {
	income, _ := l.Sum()
	return income
}

// Recent returns the n newest transactions matching every predicate, newest
// first. Transactions with equal timestamps keep their ledger order.
func (e *Engine) Recent(l shop.Ledger, n int, preds ...shop.Predicate) []shop.Transaction {
	all := l.Filter(preds...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// Summarize computes every window relative to now.
func (e *Engine) Summarize(l shop.Ledger, now time.Time, recent int) Summary {
	return Summary{
		Now:     now.In(e.Location),
		Today:   e.Daily(l, now),
		Week:    e.Week(l, now),
		Month:   e.Month(l, now),
		Year:    e.Year(l, now),
		AllTime: e.AllTime(l),
		Recent:  e.Recent(l, recent),
	}
}

// StartOfWeek returns midnight of the most recent WeekStart on or before date.
func (e *Engine) StartOfWeek(date time.Time) time.Time {
	day := e.startOfDay(date)
	diff := (int(day.Weekday()) - int(e.WeekStart) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

func (e *Engine) startOfDay(t time.Time) time.Time {
	d := t.In(e.Location)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, e.Location)
}
