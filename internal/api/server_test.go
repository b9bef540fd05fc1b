package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goodtune/pesonet/internal/report"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testStart = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

type failingPersister struct{ fail bool }

func (p *failingPersister) Save(context.Context, *shop.State) error {
	if p.fail {
		return errors.New("disk full")
	}
	return nil
}

type testEnv struct {
	handler   http.Handler
	shop      *shop.Shop
	clock     *shop.TestClock
	persister *failingPersister
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}

	st := &shop.State{
		Accounts: []shop.Account{
			{ID: 1, Username: "admin", PasswordHash: hash("admin123"), Role: shop.RoleAdmin},
			{ID: 2, Username: "staff", PasswordHash: hash("staff123"), Role: shop.RoleStaff},
		},
		Stations: []shop.Station{
			{ID: 1, Name: "PC-01", RatePerHour: decimal.NewFromInt(60)},
			{ID: 2, Name: "PC-02", RatePerHour: decimal.NewFromInt(30)},
		},
		Products: []shop.Product{
			{ID: 1, Name: "Bottled Water", Price: decimal.NewFromInt(20), Stock: 3},
		},
	}

	clock := &shop.TestClock{CurrentTime: testStart}
	persister := &failingPersister{}
	s := shop.New(st, persister, zerolog.Nop(), shop.WithClock(clock))
	srv := NewServer(Config{DefaultRate: "30", RecentTransactions: 10}, s, report.New(time.UTC, time.Sunday), zerolog.Nop())

	return &testEnv{handler: srv.Handler(), shop: s, clock: clock, persister: persister}
}

func (e *testEnv) do(t *testing.T, user, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, user+"123")
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "", http.MethodGet, "/api/stations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	req.SetBasicAuth("admin", "wrong")
	wrong := httptest.NewRecorder()
	env.handler.ServeHTTP(wrong, req)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	rec = env.do(t, "staff", http.MethodGet, "/api/stations", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownUserStillComparesHash(t *testing.T) {
	env := newTestEnv(t)

	calls := 0
	orig := compareHash
	compareHash = func(hash, password []byte) error {
		calls++
		return orig(hash, password)
	}
	defer func() { compareHash = orig }()

	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	req.SetBasicAuth("nobody", "nobody123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestStaffCannotEditCatalog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "staff", http.MethodPost, "/api/stations", map[string]string{"name": "PC-03"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, "admin", http.MethodPost, "/api/stations", map[string]string{"name": "PC-03"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var station shop.Station
	decode(t, rec, &station)
	assert.Equal(t, 3, station.ID)
	assert.Equal(t, "30.00", station.RatePerHour.StringFixed(2))
}

func TestStationCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "admin", http.MethodPatch, "/api/stations/2", map[string]interface{}{"rate_per_hour": 45.5})
	require.Equal(t, http.StatusOK, rec.Code)
	var station shop.Station
	decode(t, rec, &station)
	assert.Equal(t, "45.50", station.RatePerHour.StringFixed(2))
	assert.Equal(t, "PC-02", station.Name)

	rec = env.do(t, "admin", http.MethodPatch, "/api/stations/2", map[string]string{"rate_per_hour": "-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, "admin", http.MethodGet, "/api/stations/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "admin", http.MethodGet, "/api/stations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "admin", http.MethodDelete, "/api/stations/2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, env.shop.Stations(), 1)
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "staff", http.MethodPost, "/api/sessions", map[string]interface{}{"station_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var started sessionView
	decode(t, rec, &started)
	assert.Equal(t, shop.WalkIn, started.Customer)

	rec = env.do(t, "staff", http.MethodPost, "/api/sessions", map[string]interface{}{"station_id": 1, "customer": "Ana"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, "staff", http.MethodPost, "/api/sessions", map[string]interface{}{"station_id": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "admin", http.MethodDelete, "/api/stations/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.clock.Advance(61 * time.Second)

	rec = env.do(t, "staff", http.MethodGet, "/api/sessions?active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Sessions []sessionView `json:"sessions"`
		Count    int           `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, int64(61), list.Sessions[0].ElapsedSeconds)
	assert.Equal(t, "2.00", list.Sessions[0].Due.StringFixed(2))

	rec = env.do(t, "staff", http.MethodPost, "/api/sessions/"+started.ID+"/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var receipt shop.Receipt
	decode(t, rec, &receipt)
	assert.Equal(t, "2.00", receipt.Transaction.Amount.StringFixed(2))
	assert.Equal(t, shop.KindSession, receipt.Transaction.Kind)
	require.NotNil(t, receipt.Session)
	assert.False(t, receipt.Session.Active())

	rec = env.do(t, "staff", http.MethodPost, "/api/sessions/"+started.ID+"/stop", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, env.shop.Ledger().All(), 1)
}

func TestSell(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "staff", http.MethodPost, "/api/sales", map[string]int{"product_id": 1, "quantity": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, "staff", http.MethodPost, "/api/sales", map[string]int{"product_id": 1, "quantity": 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	var receipt shop.Receipt
	decode(t, rec, &receipt)
	assert.Equal(t, "60.00", receipt.Transaction.Amount.StringFixed(2))
	require.NotNil(t, receipt.Product)
	assert.Equal(t, 0, receipt.Product.Stock)

	rec = env.do(t, "staff", http.MethodPost, "/api/sales", map[string]interface{}{"product_id": 1, "quantity": 1, "discount": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "admin", http.MethodPost, "/api/products", map[string]interface{}{"name": "Coffee", "price": "25.00", "stock": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p shop.Product
	decode(t, rec, &p)
	assert.Equal(t, 2, p.ID)

	rec = env.do(t, "admin", http.MethodPost, "/api/products", map[string]interface{}{"name": "Tea", "price": "abc", "stock": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, "admin", http.MethodPatch, "/api/products/2", map[string]interface{}{"stock": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &p)
	assert.Equal(t, 4, p.Stock)
	assert.Equal(t, "25.00", p.Price.StringFixed(2))

	rec = env.do(t, "staff", http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "admin", http.MethodDelete, "/api/products/2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, "admin", http.MethodDelete, "/api/products/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersistFailureIsServerError(t *testing.T) {
	env := newTestEnv(t)
	env.persister.fail = true

	rec := env.do(t, "staff", http.MethodPost, "/api/sessions", map[string]interface{}{"station_id": 1})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	st, err := env.shop.Station(1)
	require.NoError(t, err)
	assert.False(t, st.Occupied)
}

func TestTransactionsAndSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.shop.Sell(ctx, 1, 1)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	sess, err := env.shop.StartSession(ctx, 2, "Ben")
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.shop.StopSession(ctx, sess.ID)
	require.NoError(t, err)

	rec := env.do(t, "staff", http.MethodGet, "/api/transactions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txs struct {
		Transactions []shop.Transaction `json:"transactions"`
	}
	decode(t, rec, &txs)
	require.Len(t, txs.Transactions, 1)
	assert.Equal(t, shop.KindSession, txs.Transactions[0].Kind)

	rec = env.do(t, "staff", http.MethodGet, "/api/transactions?kind=Product", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &txs)
	require.Len(t, txs.Transactions, 1)
	assert.Equal(t, shop.KindProduct, txs.Transactions[0].Kind)

	rec = env.do(t, "staff", http.MethodGet, "/api/transactions?kind=Refund", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "staff", http.MethodGet, "/api/transactions?limit=-2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "staff", http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary report.Summary
	decode(t, rec, &summary)
	assert.Equal(t, "50.00", summary.Today.Income.StringFixed(2))
	assert.Equal(t, 1, summary.Today.Sessions)
	assert.Equal(t, "50.00", summary.AllTime.StringFixed(2))
	assert.Len(t, summary.Recent, 2)

	rec = env.do(t, "staff", http.MethodGet, "/api/reports/summary?date=2024-03-13", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summary)
	assert.True(t, summary.Today.Income.IsZero())
	assert.Equal(t, "50.00", summary.AllTime.StringFixed(2))

	rec = env.do(t, "staff", http.MethodGet, "/api/reports/summary?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := shop.New(&shop.State{}, nil, zerolog.Nop())
	srv := NewServer(Config{RateLimit: 2, RateLimitWindow: time.Minute}, s, report.New(time.UTC, time.Sunday), zerolog.Nop())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNumericAcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"12.50"`, "12.50"},
		{`12.5`, "12.5"},
		{`7`, "7"},
		{`null`, ""},
	}

	for _, tt := range tests {
		var n numeric
		if err := json.Unmarshal([]byte(tt.in), &n); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if string(n) != tt.want {
			t.Errorf("unmarshal %s = %q, want %q", tt.in, n, tt.want)
		}
	}

	var n numeric
	if err := json.Unmarshal([]byte(`true`), &n); err == nil {
		t.Error("expected error for boolean")
	}
}
