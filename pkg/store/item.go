//go:generate go run go.uber.org/mock/mockgen -source=item.go -destination=../../mocks/mock_item_store.go -package=mocks
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Item is a portfolio item owned by this instance's participant.
type Item struct {
	ID        string
	Name      string
	OwnerID   string
	Data      []byte
	Comments  []Comment
	UpdatedAt time.Time
}

// Comment is one remark attached to an item, locally authored or applied
// from an inbound comment_added event.
type Comment struct {
	ID       string
	AuthorID string
	Text     string
	At       time.Time
}

// ShareGrant records that one item was shared with one participant.
type ShareGrant struct {
	ItemID        string
	ParticipantID string
	AccessLevel   string
	Token         string
	GrantedAt     time.Time
}

type IItemStore interface {
	Put(item Item) error
	Get(id string) (Item, error)
	List() ([]Item, error)
	AddComment(itemID string, comment Comment) (Item, error)
	AddShare(grant ShareGrant) error
	ListShares(itemID string) ([]ShareGrant, error)
	RevokeShare(itemID, participantID string) error
	SharedWith(itemID string) ([]string, error)
}

type ItemStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewItemStore(db *badger.DB, log *slog.Logger) ItemStore {
	return ItemStore{db: db, log: log}
}

// Keys are "item:{id}" for the item itself and
// "grant:{item_id}:{participant_id}" for each share grant, so one prefix
// scan lists everything shared from a given item.
func itemKey(id string) []byte { return []byte("item:" + id) }

func grantKey(itemID, participantID string) []byte {
	return []byte(fmt.Sprintf("grant:%s:%s", itemID, participantID))
}

func (s ItemStore) Put(item Item) error {
	item.UpdatedAt = time.Now().UTC()
	bytes, err := msgpack.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ID), bytes)
	})
}

func (s ItemStore) Get(id string) (Item, error) {
	var item Item
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(itemKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
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

func (s ItemStore) List() ([]Item, error) {
	var items []Item
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		prefix := []byte("item:")
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item Item
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

// AddComment appends a comment to an existing item and returns the
// updated item. The read and write run in one transaction so concurrent
// comments cannot clobber each other.
func (s ItemStore) AddComment(itemID string, comment Comment) (Item, error) {
	var item Item
	err := s.db.Update(func(txn *badger.Txn) error {
		entry, err := txn.Get(itemKey(itemID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := entry.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &item)
		}); err != nil {
			return err
		}
		item.Comments = append(item.Comments, comment)
		item.UpdatedAt = time.Now().UTC()
		bytes, err := msgpack.Marshal(item)
		if err != nil {
			return err
		}
		return txn.Set(itemKey(itemID), bytes)
	})
	return item, err
}

func (s ItemStore) AddShare(grant ShareGrant) error {
	grant.GrantedAt = time.Now().UTC()
	bytes, err := msgpack.Marshal(grant)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(grantKey(grant.ItemID, grant.ParticipantID), bytes)
	})
}

func (s ItemStore) ListShares(itemID string) ([]ShareGrant, error) {
	var grants []ShareGrant
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		prefix := []byte("grant:" + itemID + ":")
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var grant ShareGrant
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &grant)
			}); err != nil {
				return err
			}
			grants = append(grants, grant)
		}
		return nil
	})
	return grants, err
}

func (s ItemStore) RevokeShare(itemID, participantID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := grantKey(itemID, participantID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("grant %s for %s: %w", itemID, participantID, ErrNotFound)
		}
		return txn.Delete(key)
	})
}

// SharedWith lists the distinct participants any grant on the item names,
// used to fan comment and update events out to everyone holding a copy.
func (s ItemStore) SharedWith(itemID string) ([]string, error) {
	grants, err := s.ListShares(itemID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		if strings.TrimSpace(g.ParticipantID) != "" {
			ids = append(ids, g.ParticipantID)
		}
	}
	return ids, nil
}
