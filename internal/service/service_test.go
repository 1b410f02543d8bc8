package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readlaterapp/readlater-server/internal/auth"
	"github.com/readlaterapp/readlater-server/internal/media/preview"
	"github.com/readlaterapp/readlater-server/internal/metadata/og"
	"github.com/readlaterapp/readlater-server/internal/search"
	"github.com/readlaterapp/readlater-server/internal/store"
)

// testKeyHex is a fixed 32-byte PASETO key for tests.
const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

// testEnv bundles the services under test with their backing store.
type testEnv struct {
	store       *store.Store
	index       *search.Index
	auth        *AuthService
	bookmarks   *BookmarkService
	tags        *TagService
	collections *CollectionService
}

// setupTestEnv wires services against a temporary store and index.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokenService, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	scraper := og.NewScraper(og.Options{
		Timeout: 2 * time.Second,
		Retries: 0,
	})
	t.Cleanup(scraper.Close)

	return &testEnv{
		store:       st,
		index:       index,
		auth:        NewAuthService(st, tokenService, nil),
		bookmarks:   NewBookmarkService(st, index, scraper, preview.NewGenerator(nil), nil),
		tags:        NewTagService(st, index, nil),
		collections: NewCollectionService(st, nil),
	}
}

// registerTestUser creates a user and returns its ID.
func (e *testEnv) registerTestUser(t *testing.T, email string) string {
	t.Helper()

	user, err := e.auth.Register(context.Background(), RegisterRequest{
		Username: "testuser",
		Email:    email,
		Password: "supersecret1",
	})
	require.NoError(t, err)
	return user.ID
}
