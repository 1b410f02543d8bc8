package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/readlaterapp/readlater-server/internal/domain"
)

// Key layout for bookmarks. The owner's ID sits between the prefix and
// the bookmark ID, so a single prefix scan yields one user's bookmarks
// and nothing else.
const bookmarkPrefix = "bookmark:" // bookmark:{userID}:{id} → Bookmark JSON

func bookmarkKey(userID, id string) string {
	return bookmarkPrefix + userID + ":" + id
}

func userBookmarksPrefix(userID string) string {
	return bookmarkPrefix + userID + ":"
}

// CreateBookmark stores a new bookmark.
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.set([]byte(bookmarkKey(b.UserID, b.ID)), b)
}

// GetBookmark retrieves one of the user's bookmarks by ID.
// A bookmark owned by another user is indistinguishable from a missing one.
func (s *Store) GetBookmark(ctx context.Context, userID, id string) (*domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(bookmarkPrefix, userID+":"+id)
	defer releaseKey(key)

	var b domain.Bookmark
	if err := s.get(key, &b); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookmarkNotFound
		}
		return nil, fmt.Errorf("get bookmark: %w", err)
	}

	return &b, nil
}

// UpdateBookmark replaces an existing bookmark.
func (s *Store) UpdateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(bookmarkKey(b.UserID, b.ID))

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check bookmark exists: %w", err)
	}
	if !exists {
		return ErrBookmarkNotFound
	}

	b.Touch()
	return s.set(key, b)
}

// DeleteBookmark removes one of the user's bookmarks.
// Returns ErrBookmarkNotFound if the bookmark doesn't exist or belongs
// to another user.
func (s *Store) DeleteBookmark(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(bookmarkKey(userID, id))

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBookmarkNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// BulkDeleteBookmarks deletes the given bookmark IDs for a user.
// IDs that don't exist (or belong to someone else) are skipped.
// Returns the number actually deleted.
func (s *Store) BulkDeleteBookmarks(ctx context.Context, userID string, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			key := []byte(bookmarkKey(userID, id))
			if _, err := txn.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bulk delete bookmarks: %w", err)
	}

	return deleted, nil
}

// ListBookmarks returns all of a user's bookmarks, unordered.
// Callers that need filtering, sorting, or pagination use QueryBookmarks.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(userBookmarksPrefix(userID))
	var bookmarks []*domain.Bookmark

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var b domain.Bookmark
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			})
			if err != nil {
				continue // Skip malformed entries
			}
			bookmarks = append(bookmarks, &b)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	return bookmarks, nil
}

// CountBookmarks counts a user's bookmarks, optionally filtered by
// unread state.
func (s *Store) CountBookmarks(ctx context.Context, userID string, isUnread *bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(userBookmarksPrefix(userID))
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		// Values are needed only when filtering by unread state.
		opts.PrefetchValues = isUnread != nil

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if isUnread == nil {
				count++
				continue
			}

			var b domain.Bookmark
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			})
			if err != nil {
				continue
			}
			if b.IsUnread == *isUnread {
				count++
			}
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}

	return count, nil
}

// DetachTagFromBookmarks removes every reference to tagID from the
// user's bookmarks. Used before deleting a tag so bookmarks never point
// at a tag that no longer exists. Returns the IDs of the bookmarks
// that were modified.
func (s *Store) DetachTagFromBookmarks(ctx context.Context, userID, tagID string) ([]string, error) {
	bookmarks, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	var modified []string
	for _, b := range bookmarks {
		if !b.RemoveTag(tagID) {
			continue
		}
		b.Touch()
		if err := s.set([]byte(bookmarkKey(userID, b.ID)), b); err != nil {
			return modified, fmt.Errorf("detach tag from bookmark %s: %w", b.ID, err)
		}
		modified = append(modified, b.ID)
	}

	return modified, nil
}

// CountBookmarksPerTag returns tagID → bookmark count across the user's
// bookmarks. Duplicate tag references on a single bookmark count once.
func (s *Store) CountBookmarksPerTag(ctx context.Context, userID string) (map[string]int, error) {
	bookmarks, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, b := range bookmarks {
		seen := make(map[string]bool, len(b.Tags))
		for _, tagID := range b.Tags {
			if seen[tagID] {
				continue
			}
			seen[tagID] = true
			counts[tagID]++
		}
	}

	return counts, nil
}

// CountBookmarksPerCollection returns collectionID → bookmark count
// across the user's bookmarks.
func (s *Store) CountBookmarksPerCollection(ctx context.Context, userID string) (map[string]int, error) {
	bookmarks, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, b := range bookmarks {
		seen := make(map[string]bool, len(b.Collections))
		for _, colID := range b.Collections {
			if seen[colID] {
				continue
			}
			seen[colID] = true
			counts[colID]++
		}
	}

	return counts, nil
}
