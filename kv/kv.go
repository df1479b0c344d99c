// Package kv is the platform key-value storage positions are persisted in.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidtune-cli/vidtune/where"
)

// Store is a string to string key-value store.
// GetItem reports a missing key with ok == false and a nil error.
type Store interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Backends accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Backends returns the names accepted by Open.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendMemory}
}

// Open returns the store for backend at its default location.
func Open(backend string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(where.Positions()), nil
	case BackendSQLite:
		return NewSQLite(where.Database())
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
