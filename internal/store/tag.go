package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readlaterapp/readlater-server/internal/domain"
	"github.com/readlaterapp/readlater-server/internal/id"
	"github.com/readlaterapp/readlater-server/internal/normalize"
)

// Key prefixes for tag storage. Tags are owned by a single user, and the
// name index enforces per-user uniqueness on the normalized name.
const (
	tagPrefix       = "tag:"           // tag:{userID}:{id} → Tag JSON
	tagByNamePrefix = "idx:tags:name:" // idx:tags:name:{userID}:{name} → tagID
)

func tagKey(userID, tagID string) string {
	return tagPrefix + userID + ":" + tagID
}

func tagNameKey(userID, normalizedName string) string {
	return tagByNamePrefix + userID + ":" + normalizedName
}

func userTagsPrefix(userID string) string {
	return tagPrefix + userID + ":"
}

// CreateTag creates a new tag for a user.
// The tag's Name must already be normalized (see normalize.TagName).
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		// Check if name already exists for this user.
		nameKey := []byte(tagNameKey(t.UserID, t.Name))
		if _, err := txn.Get(nameKey); err == nil {
			return ErrTagExists
		}

		// Store tag.
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		key := []byte(tagKey(t.UserID, t.ID))
		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Name index (per user).
		return txn.Set(nameKey, []byte(t.ID))
	})
}

// GetTag retrieves one of the user's tags by ID.
func (s *Store) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(tagPrefix, userID+":"+tagID)
	defer releaseKey(key)

	var t domain.Tag
	if err := s.get(key, &t); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	return &t, nil
}

// GetTagByName retrieves one of the user's tags by name.
// The name is normalized before lookup.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nameKey := []byte(tagNameKey(userID, normalize.TagName(name)))

	var tagID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tagID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return s.GetTag(ctx, userID, tagID)
}

// ListTags returns all of a user's tags, unordered.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(userTagsPrefix(userID))
	var tags []*domain.Tag

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t domain.Tag
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				continue
			}
			tags = append(tags, &t)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

// UpdateTag updates a tag, maintaining the name index if the name changed.
// The new Name must already be normalized.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	old, err := s.GetTag(ctx, t.UserID, t.ID)
	if err != nil {
		return err
	}

	t.Touch()

	return s.db.Update(func(txn *badger.Txn) error {
		if old.Name != t.Name {
			// Check the new name isn't taken.
			newNameKey := []byte(tagNameKey(t.UserID, t.Name))
			if _, err := txn.Get(newNameKey); err == nil {
				return ErrTagExists
			}

			// Move the name index.
			oldNameKey := []byte(tagNameKey(t.UserID, old.Name))
			if err := txn.Delete(oldNameKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(newNameKey, []byte(t.ID)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return txn.Set([]byte(tagKey(t.UserID, t.ID)), data)
	})
}

// DeleteTag removes a tag and its name index.
// Callers are responsible for detaching the tag from bookmarks first.
func (s *Store) DeleteTag(ctx context.Context, userID, tagID string) error {
	t, err := s.GetTag(ctx, userID, tagID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(tagKey(userID, tagID))); err != nil {
			return err
		}

		nameKey := []byte(tagNameKey(userID, t.Name))
		if err := txn.Delete(nameKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// FindOrCreateTag atomically finds an existing tag by name or creates a
// new one with the default color.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	normalized := normalize.TagName(name)

	// Try to find existing tag first (optimistic read).
	existing, err := s.GetTagByName(ctx, userID, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrTagNotFound) {
		return nil, false, err
	}

	// Tag doesn't exist, create it.
	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, false, err
	}

	t := &domain.Tag{
		UserID: userID,
		Name:   normalized,
		Color:  domain.DefaultTagColor,
	}
	t.ID = tagID
	t.InitTimestamps()

	if err := s.CreateTag(ctx, t); err != nil {
		if errors.Is(err, ErrTagExists) {
			// Race condition: another goroutine created it.
			existing, err := s.GetTagByName(ctx, userID, normalized)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}
