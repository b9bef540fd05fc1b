package shop

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsBrokenInvariants(t *testing.T) {
	end := testStart.Add(time.Minute)
	st := &State{
		Stations: []Station{
			{ID: 1, Name: "PC-01", Occupied: true},
			{ID: 2, Name: "PC-02", Occupied: false},
		},
		Products: []Product{{ID: 1, Name: "Snack", Stock: -1}},
		Sessions: []Session{
			{ID: "a", StationID: 2, StartedAt: testStart},
			{ID: "b", StationID: 1, StartedAt: testStart, EndedAt: &end},
		},
	}

	errs := st.Validate()
	// station 1 occupied with no session, station 2 free with one,
	// one closed session without a transaction, negative stock
	assert.Len(t, errs, 4)
}

func TestValidateConsistentState(t *testing.T) {
	end := testStart.Add(time.Minute)
	st := &State{
		Stations: []Station{{ID: 1, Occupied: true}, {ID: 2}},
		Sessions: []Session{
			{ID: "a", StationID: 1, StartedAt: testStart},
			{ID: "b", StationID: 2, StartedAt: testStart, EndedAt: &end},
		},
		Transactions: []Transaction{{ID: "t", Kind: KindSession}},
	}

	assert.Empty(t, st.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	end := testStart.Add(time.Minute)
	st := &State{
		Stations: []Station{{ID: 1, Name: "PC-01"}},
		Sessions: []Session{{ID: "a", StationID: 1, StartedAt: testStart, EndedAt: &end}},
	}

	c := st.Clone()
	c.Stations[0].Name = "changed"
	*c.Sessions[0].EndedAt = end.Add(time.Hour)

	assert.Equal(t, "PC-01", st.Stations[0].Name)
	assert.Equal(t, end, *st.Sessions[0].EndedAt)
}

func TestLedgerFilterAndSum(t *testing.T) {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	l := NewLedger([]Transaction{
		{ID: "1", Timestamp: day.Add(9 * time.Hour), Kind: KindSession, Amount: decimal.RequireFromString("12.50")},
		{ID: "2", Timestamp: day.Add(10 * time.Hour), Kind: KindProduct, Amount: decimal.NewFromInt(20)},
		{ID: "3", Timestamp: day.Add(30 * time.Hour), Kind: KindSession, Amount: decimal.NewFromInt(5)},
	})

	total, n := l.Sum()
	assert.Equal(t, "37.50", total.StringFixed(2))
	assert.Equal(t, 3, n)

	sessions := l.Filter(OfKind(KindSession))
	require.Len(t, sessions, 2)
	assert.Equal(t, "1", sessions[0].ID)
	assert.Equal(t, "3", sessions[1].ID)

	total, n = l.Sum(Between(day, day.AddDate(0, 0, 1)), OfKind(KindSession))
	assert.Equal(t, "12.50", total.StringFixed(2))
	assert.Equal(t, 1, n)

	assert.Empty(t, l.Filter(Between(day.AddDate(1, 0, 0), day.AddDate(2, 0, 0))))
}

func TestLedgerIsACopy(t *testing.T) {
	entries := []Transaction{{ID: "1"}}
	l := NewLedger(entries)
	entries[0].ID = "changed"

	all := l.All()
	all[0].ID = "also changed"

	assert.Equal(t, "1", l.All()[0].ID)
}

func TestOnDateUsesLocation(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	l := NewLedger([]Transaction{
		// 01:00 on the 14th in Manila
		{ID: "late", Timestamp: time.Date(2024, 3, 13, 17, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(10)},
		{ID: "utc", Timestamp: time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(5)},
	})

	got := l.Filter(OnDate(time.Date(2024, 3, 14, 9, 0, 0, 0, manila), manila))
	require.Len(t, got, 1)
	assert.Equal(t, "late", got[0].ID)

	got = l.Filter(OnDate(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Len(t, got, 2)
}

func TestRepairOccupancy(t *testing.T) {
	st := &State{
		Stations: []Station{
			{ID: 1, Occupied: true},
			{ID: 2},
			{ID: 3, Occupied: true},
		},
		Sessions: []Session{
			{ID: "a", StationID: 2, StartedAt: testStart},
			{ID: "b", StationID: 3, StartedAt: testStart},
		},
	}

	assert.Equal(t, []int{1, 2}, st.RepairOccupancy())
	assert.False(t, st.Stations[0].Occupied)
	assert.True(t, st.Stations[1].Occupied)
	assert.True(t, st.Stations[2].Occupied)

	assert.Empty(t, st.RepairOccupancy())
}
