package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/readlaterapp/readlater-server/internal/domain"
	"github.com/readlaterapp/readlater-server/internal/normalize"
)

// Key prefixes for collection storage. Like tags, collections are owned
// by a single user with a per-user name uniqueness index.
const (
	collectionPrefix       = "collection:"           // collection:{userID}:{id} → Collection JSON
	collectionByNamePrefix = "idx:collections:name:" // idx:collections:name:{userID}:{name} → collectionID
)

func collectionKey(userID, collectionID string) string {
	return collectionPrefix + userID + ":" + collectionID
}

func collectionNameKey(userID, name string) string {
	return collectionByNamePrefix + userID + ":" + name
}

func userCollectionsPrefix(userID string) string {
	return collectionPrefix + userID + ":"
}

// CreateCollection creates a new collection for a user.
func (s *Store) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nameKey := []byte(collectionNameKey(c.UserID, normalize.CollectionName(c.Name)))

	return s.db.Update(func(txn *badger.Txn) error {
		// Check if name already exists for this user.
		if _, err := txn.Get(nameKey); err == nil {
			return ErrCollectionExists
		}

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		key := []byte(collectionKey(c.UserID, c.ID))
		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(nameKey, []byte(c.ID))
	})
}

// GetCollection retrieves one of the user's collections by ID.
func (s *Store) GetCollection(ctx context.Context, userID, collectionID string) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(collectionPrefix, userID+":"+collectionID)
	defer releaseKey(key)

	var c domain.Collection
	if err := s.get(key, &c); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}

	return &c, nil
}

// ListCollections returns all of a user's collections sorted by
// creation time ascending.
func (s *Store) ListCollections(ctx context.Context, userID string) ([]*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(userCollectionsPrefix(userID))
	var collections []*domain.Collection

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c domain.Collection
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			})
			if err != nil {
				continue
			}
			collections = append(collections, &c)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].CreatedAt.Before(collections[j].CreatedAt)
	})

	return collections, nil
}

// CollectionsExist reports whether every given collection ID belongs to
// the user. Used to validate bookmark writes before any mutation happens.
func (s *Store) CollectionsExist(ctx context.Context, userID string, ids []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for _, collectionID := range ids {
		exists, err := s.exists([]byte(collectionKey(userID, collectionID)))
		if err != nil {
			return false, fmt.Errorf("check collection %s: %w", collectionID, err)
		}
		if !exists {
			return false, nil
		}
	}

	return true, nil
}
