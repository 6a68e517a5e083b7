package store

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := Open(t.TempDir(), quietTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestItemStorePutGet(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	err := repo.Put(Item{
		ID:      "42",
		Name:    "Tech Portfolio",
		OwnerID: "alice",
		Data:    []byte(`{"positions":3}`),
	})
	req.NoError(err)

	got, err := repo.Get("42")
	req.NoError(err)
	req.Equal("Tech Portfolio", got.Name)
	req.Equal("alice", got.OwnerID)
	req.JSONEq(`{"positions":3}`, string(got.Data))
	req.False(got.UpdatedAt.IsZero())
}

func TestItemStoreGetMissing(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	_, err := repo.Get("nope")
	req.ErrorIs(err, ErrNotFound)
}

func TestItemStoreList(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	req.NoError(repo.Put(Item{ID: "1", Name: "one", OwnerID: "alice"}))
	req.NoError(repo.Put(Item{ID: "2", Name: "two", OwnerID: "alice"}))

	items, err := repo.List()
	req.NoError(err)
	req.Len(items, 2)
}

func TestItemStoreAddComment(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	req.NoError(repo.Put(Item{ID: "42", Name: "Tech Portfolio", OwnerID: "alice"}))

	updated, err := repo.AddComment("42", Comment{
		ID:       "c1",
		AuthorID: "bob",
		Text:     "looks solid",
		At:       time.Now().UTC(),
	})
	req.NoError(err)
	req.Len(updated.Comments, 1)
	req.Equal("bob", updated.Comments[0].AuthorID)

	_, err = repo.AddComment("missing", Comment{ID: "c2"})
	req.ErrorIs(err, ErrNotFound)
}

func TestItemStoreShareGrants(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	req.NoError(repo.AddShare(ShareGrant{ItemID: "42", ParticipantID: "bob", AccessLevel: "read"}))
	req.NoError(repo.AddShare(ShareGrant{ItemID: "42", ParticipantID: "carol", AccessLevel: "comment"}))
	req.NoError(repo.AddShare(ShareGrant{ItemID: "7", ParticipantID: "bob", AccessLevel: "read"}))

	grants, err := repo.ListShares("42")
	req.NoError(err)
	req.Len(grants, 2)

	// Grants scope to their item only.
	recipients, err := repo.SharedWith("42")
	req.NoError(err)
	req.ElementsMatch([]string{"bob", "carol"}, recipients)

	req.NoError(repo.RevokeShare("42", "bob"))
	recipients, err = repo.SharedWith("42")
	req.NoError(err)
	req.ElementsMatch([]string{"carol"}, recipients)

	req.ErrorIs(repo.RevokeShare("42", "bob"), ErrNotFound)
}

func TestItemStoreShareOverwriteKeepsOneGrant(t *testing.T) {
	req := require.New(t)
	repo := NewItemStore(openTestDB(t), quietTestLogger())

	req.NoError(repo.AddShare(ShareGrant{ItemID: "42", ParticipantID: "bob", AccessLevel: "read"}))
	req.NoError(repo.AddShare(ShareGrant{ItemID: "42", ParticipantID: "bob", AccessLevel: "comment"}))

	grants, err := repo.ListShares("42")
	req.NoError(err)
	req.Len(grants, 1)
	req.Equal("comment", grants[0].AccessLevel)
}
