package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/pesonet/internal/config"
	"github.com/goodtune/pesonet/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client *redis.Client
	key    string
	write  *redis.Script
}

// Open creates a new Redis-backed storage instance holding the state
// document under key.
func Open(cfg config.RedisConfig, key string) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		key:    key,
		write:  redis.NewScript(writeDocumentScript),
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Read returns the state document.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

// Write replaces the state document and updates its metadata hash in one
// script call.
func (s *Store) Write(ctx context.Context, data []byte) error {
	keys := []string{s.key, metaKey(s.key)}
	args := []interface{}{data, time.Now().UTC().Format(time.RFC3339Nano)}
	if err := s.write.Run(ctx, s.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// Revision returns how many times the document has been written.
func (s *Store) Revision(ctx context.Context) (uint64, error) {
	rev, err := s.client.HGet(ctx, metaKey(s.key), "revision").Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return rev, err
}

func metaKey(key string) string {
	return key + ":meta"
}
