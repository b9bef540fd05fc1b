package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/pesonet/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketState = "state"
	bucketMeta  = "meta"

	keyDocument = "document"
	keyRevision = "revision"
	keySavedAt  = "saved_at"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketState, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read returns the current state document.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketState))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(keyDocument))
		if len(value) == 0 {
			return storage.ErrNotFound
		}
		// value is only valid for the life of the transaction
		data = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the state document and bumps the revision counter in the
// same transaction.
func (s *Store) Write(ctx context.Context, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketState))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketState)
		}
		if err := b.Put([]byte(keyDocument), data); err != nil {
			return fmt.Errorf("put document: %w", err)
		}

		meta := tx.Bucket([]byte(bucketMeta))
		if meta == nil {
			return fmt.Errorf("bucket missing: %s", bucketMeta)
		}
		rev, err := meta.NextSequence()
		if err != nil {
			return fmt.Errorf("next revision: %w", err)
		}
		if err := meta.Put([]byte(keyRevision), []byte(fmt.Sprintf("%d", rev))); err != nil {
			return err
		}
		return meta.Put([]byte(keySavedAt), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	})
}

// Revision returns how many times the document has been written.
func (s *Store) Revision(ctx context.Context) (uint64, error) {
	var rev uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		meta := tx.Bucket([]byte(bucketMeta))
		if meta == nil {
			return storage.ErrNotFound
		}
		rev = meta.Sequence()
		return nil
	})
	return rev, err
}
