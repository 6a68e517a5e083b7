//go:generate go run go.uber.org/mock/mockgen -source=shared.go -destination=../../mocks/mock_shared_store.go -package=mocks
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SharedItem is the local copy of an item another participant shared with
// this instance, materialized from the pull phase of the share protocol.
type SharedItem struct {
	ID              string
	FromParticipant string
	AccessLevel     string
	Data            []byte
	Comments        []Comment
	FetchedAt       time.Time
	UpdatedAt       time.Time
}

type ISharedStore interface {
	Materialize(item SharedItem) error
	Get(id string) (SharedItem, error)
	List() ([]SharedItem, error)
	AddComment(id string, comment Comment) error
	ApplyUpdate(id string, data []byte) error
	Delete(id string) error
}

type SharedStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSharedStore(db *badger.DB, log *slog.Logger) SharedStore {
	return SharedStore{db: db, log: log}
}

func sharedKey(id string) []byte { return []byte("shared:" + id) }

// Materialize writes the fetched copy, stamping when it was pulled.
// A second share of the same item overwrites the stale copy.
func (s SharedStore) Materialize(item SharedItem) error {
	now := time.Now().UTC()
	item.FetchedAt = now
	item.UpdatedAt = now
	return s.put(item)
}

func (s SharedStore) Get(id string) (SharedItem, error) {
	var item SharedItem
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(sharedKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("shared item %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return entry.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &item)
		})
	})
	return item, err
}

func (s SharedStore) List() ([]SharedItem, error) {
	var items []SharedItem
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		prefix := []byte("shared:")
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item SharedItem
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &item)
			}); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// AddComment applies an inbound comment_added payload to the local copy.
func (s SharedStore) AddComment(id string, comment Comment) error {
	return s.mutate(id, func(item *SharedItem) {
		item.Comments = append(item.Comments, comment)
	})
}

// ApplyUpdate replaces the copy's data with an inbound item_updated
// payload. Comments already applied locally are kept.
func (s SharedStore) ApplyUpdate(id string, data []byte) error {
	return s.mutate(id, func(item *SharedItem) {
		item.Data = data
	})
}

func (s SharedStore) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := sharedKey(id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("shared item %s: %w", id, ErrNotFound)
		}
		return txn.Delete(key)
	})
}

func (s SharedStore) put(item SharedItem) error {
	bytes, err := msgpack.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sharedKey(item.ID), bytes)
	})
}

func (s SharedStore) mutate(id string, apply func(*SharedItem)) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry, err := txn.Get(sharedKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("shared item %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		var item SharedItem
		if err := entry.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &item)
		}); err != nil {
			return err
		}
		apply(&item)
		item.UpdatedAt = time.Now().UTC()
		bytes, err := msgpack.Marshal(item)
		if err != nil {
			return err
		}
		return txn.Set(sharedKey(id), bytes)
	})
}
