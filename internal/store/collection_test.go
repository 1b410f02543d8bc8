package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlaterapp/readlater-server/internal/domain"
)

func newTestCollection(id, userID, name string) *domain.Collection {
	c := &domain.Collection{
		UserID: userID,
		Name:   name,
		Icon:   domain.DefaultCollectionIcon,
	}
	c.ID = id
	c.InitTimestamps()
	return c
}

func TestCreateAndGetCollection(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	c := newTestCollection("col-1", "user-1", "Work")
	c.Description = "Work reading"
	require.NoError(t, store.CreateCollection(ctx, c))

	retrieved, err := store.GetCollection(ctx, "user-1", "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Work", retrieved.Name)
	assert.Equal(t, "Work reading", retrieved.Description)
	assert.Equal(t, domain.DefaultCollectionIcon, retrieved.Icon)
}

func TestCreateCollection_DuplicateName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, newTestCollection("col-1", "user-1", "Work")))

	// Uniqueness is on the normalized name, so extra whitespace still collides
	err := store.CreateCollection(ctx, newTestCollection("col-2", "user-1", "  Work "))
	assert.ErrorIs(t, err, ErrCollectionExists)

	// Same name under another user is fine
	err = store.CreateCollection(ctx, newTestCollection("col-3", "user-2", "Work"))
	require.NoError(t, err)
}

func TestGetCollection_OwnershipIsolation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, newTestCollection("col-1", "user-1", "Work")))

	_, err := store.GetCollection(ctx, "user-2", "col-1")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestListCollections_SortedByCreation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first := newTestCollection("col-1", "user-1", "First")
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, store.CreateCollection(ctx, first))

	second := newTestCollection("col-2", "user-1", "Second")
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	require.NoError(t, store.CreateCollection(ctx, second))

	require.NoError(t, store.CreateCollection(ctx, newTestCollection("col-3", "user-2", "Other")))

	collections, err := store.ListCollections(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "col-1", collections[0].ID)
	assert.Equal(t, "col-2", collections[1].ID)
}

func TestCollectionsExist(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, newTestCollection("col-1", "user-1", "Work")))
	require.NoError(t, store.CreateCollection(ctx, newTestCollection("col-2", "user-1", "Home")))

	ok, err := store.CollectionsExist(ctx, "user-1", []string{"col-1", "col-2"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CollectionsExist(ctx, "user-1", []string{"col-1", "col-missing"})
	require.NoError(t, err)
	assert.False(t, ok)

	// Another user's collection doesn't count
	ok, err = store.CollectionsExist(ctx, "user-2", []string{"col-1"})
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty set is trivially valid
	ok, err = store.CollectionsExist(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
