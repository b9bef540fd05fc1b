package storage_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goodtune/pesonet/internal/config"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/goodtune/pesonet/internal/storage"
	"github.com/goodtune/pesonet/internal/storage/bolt"
	"github.com/goodtune/pesonet/internal/storage/file"
	"github.com/goodtune/pesonet/internal/storage/redis"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testDefaults = storage.Defaults{
	AdminPassword: "admin123",
	StaffPassword: "staff123",
	StationRate:   decimal.NewFromInt(30),
}

type memoryStore struct {
	data     []byte
	readErr  error
	writeErr error
	writes   int
}

func (m *memoryStore) Read(context.Context) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.data == nil {
		return nil, storage.ErrNotFound
	}
	return m.data, nil
}

func (m *memoryStore) Write(_ context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func sampleState() *shop.State {
	start := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(61 * time.Second)
	return &shop.State{
		Accounts: []shop.Account{{ID: 1, Name: "Owner", Username: "owner", PasswordHash: "x", Role: shop.RoleAdmin}},
		Stations: []shop.Station{
			{ID: 1, Name: "PC-01", RatePerHour: decimal.RequireFromString("60.00")},
			{ID: 2, Name: "PC-02", Occupied: true, RatePerHour: decimal.RequireFromString("25.50")},
		},
		Products: []shop.Product{{ID: 1, Name: "Snack", Price: decimal.RequireFromString("35"), Stock: 4}},
		Sessions: []shop.Session{
			{ID: "s1", StationID: 1, Customer: shop.WalkIn, StartedAt: start, EndedAt: &end, RatePerHour: decimal.RequireFromString("60")},
			{ID: "s2", StationID: 2, Customer: "Ana", StartedAt: end, RatePerHour: decimal.RequireFromString("25.50")},
		},
		Transactions: []shop.Transaction{
			{ID: "t1", Timestamp: end, Kind: shop.KindSession, Amount: decimal.RequireFromString("2.00"), Details: "PC-01 - Walk-in"},
		},
	}
}

func TestLoadMissingWritesDefaults(t *testing.T) {
	store := &memoryStore{}
	gw := storage.NewGateway(store, storage.Bootstrap(testDefaults), zerolog.Nop())

	st, err := gw.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, st.Stations, storage.DefaultStations)
	assert.Equal(t, "PC-01", st.Stations[0].Name)
	assert.Equal(t, "PC-08", st.Stations[7].Name)
	assert.True(t, st.Stations[3].RatePerHour.Equal(decimal.NewFromInt(30)))
	require.Len(t, st.Products, 2)
	assert.Equal(t, 20, st.Products[1].Stock)
	assert.Empty(t, st.Sessions)
	assert.Empty(t, st.Transactions)

	require.Len(t, st.Accounts, 2)
	assert.Equal(t, shop.RoleAdmin, st.Accounts[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(st.Accounts[0].PasswordHash), []byte("admin123")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(st.Accounts[1].PasswordHash), []byte("staff123")))

	assert.Equal(t, 1, store.writes)
}

func TestLoadCorruptFallsBack(t *testing.T) {
	store := &memoryStore{data: []byte("{not json")}
	gw := storage.NewGateway(store, storage.Bootstrap(testDefaults), zerolog.Nop())

	st, err := gw.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Stations, storage.DefaultStations)

	// the broken document stays until the next save
	assert.Equal(t, 0, store.writes)
}

func TestLoadReadErrorFallsBack(t *testing.T) {
	store := &memoryStore{readErr: errors.New("disk on fire")}
	gw := storage.NewGateway(store, storage.Bootstrap(testDefaults), zerolog.Nop())

	st, err := gw.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Products, 2)
}

func TestSaveWrapsWriteError(t *testing.T) {
	cause := errors.New("read-only filesystem")
	gw := storage.NewGateway(&memoryStore{writeErr: cause}, storage.Bootstrap(testDefaults), zerolog.Nop())

	err := gw.Save(context.Background(), sampleState())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestDecodeFillsEmptyCollections(t *testing.T) {
	st, err := storage.Decode([]byte(`{"stations":[{"id":1,"name":"PC-01","rate_per_hour":"30"}]}`))
	require.NoError(t, err)

	assert.Len(t, st.Stations, 1)
	assert.NotNil(t, st.Products)
	assert.NotNil(t, st.Sessions)
	assert.NotNil(t, st.Transactions)
	assert.NotNil(t, st.Accounts)
}

func TestRoundTripEveryBackend(t *testing.T) {
	backends := map[string]func(t *testing.T) storage.Store{
		"file": func(t *testing.T) storage.Store {
			s, err := file.Open(filepath.Join(t.TempDir(), "pesonet.json"))
			require.NoError(t, err)
			return s
		},
		"bolt": func(t *testing.T) storage.Store {
			s, err := bolt.Open(filepath.Join(t.TempDir(), "pesonet.db"))
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) storage.Store {
			mr := miniredis.RunT(t)
			s, err := redis.Open(config.RedisConfig{
				Host:         mr.Addr(),
				DialTimeout:  "1s",
				ReadTimeout:  "1s",
				WriteTimeout: "1s",
			}, "pesonet:state")
			require.NoError(t, err)
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			defer func() { _ = store.Close() }()

			ctx := context.Background()
			gw := storage.NewGateway(store, storage.Bootstrap(testDefaults), zerolog.Nop())
			want := sampleState()
			require.NoError(t, gw.Save(ctx, want))

			got, err := gw.Load(ctx)
			require.NoError(t, err)

			require.Len(t, got.Stations, 2)
			assert.Equal(t, want.Stations[1].Name, got.Stations[1].Name)
			assert.True(t, got.Stations[1].Occupied)
			assert.True(t, want.Stations[1].RatePerHour.Equal(got.Stations[1].RatePerHour))

			require.Len(t, got.Sessions, 2)
			require.NotNil(t, got.Sessions[0].EndedAt)
			assert.True(t, want.Sessions[0].EndedAt.Equal(*got.Sessions[0].EndedAt))
			assert.True(t, got.Sessions[1].Active())
			assert.True(t, want.Sessions[1].StartedAt.Equal(got.Sessions[1].StartedAt))

			require.Len(t, got.Transactions, 1)
			assert.Equal(t, "2.00", got.Transactions[0].Amount.StringFixed(2))
			assert.Equal(t, shop.KindSession, got.Transactions[0].Kind)
			assert.Equal(t, 4, got.Products[0].Stock)
			assert.Equal(t, "owner", got.Accounts[0].Username)

			assert.Empty(t, got.Validate())
		})
	}
}

func TestLoadRepairsStuckStation(t *testing.T) {
	st := &shop.State{
		Stations: []shop.Station{
			{ID: 1, Name: "PC-01", Occupied: true},
			{ID: 2, Name: "PC-02"},
		},
	}
	data, err := storage.Encode(st)
	require.NoError(t, err)

	gw := storage.NewGateway(&memoryStore{data: data}, storage.Bootstrap(testDefaults), zerolog.Nop())
	loaded, err := gw.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, loaded.Stations, 2)
	assert.False(t, loaded.Stations[0].Occupied)
	assert.Empty(t, loaded.Validate())
}

type revisionStore struct {
	memoryStore
}

func (r *revisionStore) Revision(context.Context) (uint64, error) {
	return uint64(r.writes), nil
}

func TestSaveLogsRevision(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	store := &revisionStore{}
	gw := storage.NewGateway(store, storage.Bootstrap(testDefaults), logger)

	require.NoError(t, gw.Save(context.Background(), sampleState()))
	require.NoError(t, gw.Save(context.Background(), sampleState()))

	assert.Contains(t, buf.String(), `"revision":2`)
}
