package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no state document has been written yet.
var ErrNotFound = errors.New("storage: record not found")

// Revisioner is implemented by stores that count document writes.
type Revisioner interface {
	Revision(ctx context.Context) (uint64, error)
}

// Store is a backend holding a single serialized state document. Writes
// replace the whole document.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}
