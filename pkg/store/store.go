// Package store persists an instance's own items and the local copies it
// materializes from other participants, backed by BadgerDB with msgpack
// values.
package store

import (
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("not found in store")

// Open opens the instance database at path. An empty path opens an
// in-memory store, used by tests.
func Open(path string, logger *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	logger.Info("instance store opened", slog.String("path", path))
	return db, nil
}
