package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlaterapp/readlater-server/internal/domain"
	domainerrors "github.com/readlaterapp/readlater-server/internal/errors"
)

// newPageServer serves a fixed HTML page plus a small PNG at /image.png.
func newPageServer(t *testing.T, page string) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 200, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/image.png") {
			w.Header().Set("Content-Type", "image/png")
			w.Write(imgBuf.Bytes())
			return
		}
		if page == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBookmarkService_Create(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Provided Title",
		Image: server.URL + "/image.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Provided Title", b.Title)
	assert.True(t, b.IsUnread)
	// Image was reachable, so a placeholder hash was computed
	assert.NotEmpty(t, b.BlurHash)

	stored, err := env.bookmarks.Get(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, stored.Title)
}

func TestBookmarkService_Create_Enrichment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")

	server := newPageServer(t, `<html><head>
		<meta property="og:title" content="Scraped Title" />
		<meta property="og:description" content="Scraped description." />
	</head><body><p>`+strings.Repeat("word ", 400)+`</p></body></html>`)

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL: server.URL + "/article",
	})
	require.NoError(t, err)
	assert.Equal(t, "Scraped Title", b.Title)
	assert.Equal(t, "Scraped description.", b.Description)
	assert.NotEmpty(t, b.ReadingTime)
	assert.True(t, strings.HasSuffix(b.ReadingTime, "min read"))
}

func TestBookmarkService_Create_ClientReadingTime(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")

	server := newPageServer(t, `<html><head>
		<meta property="og:title" content="Scraped Title" />
	</head><body><p>`+strings.Repeat("word ", 400)+`</p></body></html>`)

	// The client's reading time wins over the computed estimate
	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:         server.URL + "/article",
		ReadingTime: "12 min read",
	})
	require.NoError(t, err)
	assert.Equal(t, "Scraped Title", b.Title)
	assert.Equal(t, "12 min read", b.ReadingTime)

	stored, err := env.bookmarks.Get(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 min read", stored.ReadingTime)
}

func TestBookmarkService_Update_ReadingTime(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Timed",
	})
	require.NoError(t, err)
	assert.Empty(t, b.ReadingTime)

	readingTime := "5 min read"
	updated, err := env.bookmarks.Update(ctx, userID, b.ID, UpdateBookmarkRequest{
		ReadingTime: &readingTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "5 min read", updated.ReadingTime)
	assert.Equal(t, "Timed", updated.Title)
}

func TestBookmarkService_Create_LongDescriptionTruncated(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:         server.URL + "/article",
		Title:       "Wordy",
		Description: strings.Repeat("a", 600),
	})
	require.NoError(t, err)
	assert.Len(t, []rune(b.Description), 500)
	assert.True(t, strings.HasSuffix(b.Description, "..."))
}

func TestBookmarkService_Update_LongDescriptionTruncated(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Wordy",
	})
	require.NoError(t, err)

	long := strings.Repeat("b", 600)
	updated, err := env.bookmarks.Update(ctx, userID, b.ID, UpdateBookmarkRequest{
		Description: &long,
	})
	require.NoError(t, err)
	assert.Len(t, []rune(updated.Description), 500)
	assert.True(t, strings.HasSuffix(updated.Description, "..."))
}

func TestBookmarkService_Create_EnrichmentFailureSwallowed(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "") // Page 404s

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL: server.URL + "/gone",
	})
	require.NoError(t, err)
	assert.Empty(t, b.Title)
	assert.NotEmpty(t, b.ID)
}

func TestBookmarkService_Create_TagsByName(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Tagged",
		Tags: []TagRef{
			{Kind: "name", Name: "GoLang"},
			{Kind: "name", Name: "golang"}, // Same tag after normalization
			{Kind: "name", Name: "news"},
		},
	})
	require.NoError(t, err)
	// Duplicates preserved in input order
	require.Len(t, b.Tags, 3)
	assert.Equal(t, b.Tags[0], b.Tags[1])
	assert.NotEqual(t, b.Tags[0], b.Tags[2])

	tags, err := env.tags.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	// Created with the default color
	assert.Equal(t, domain.DefaultTagColor, tags[0].Color)
}

func TestBookmarkService_Create_TagByID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	tag, err := env.tags.Create(ctx, userID, CreateTagRequest{Name: "existing"})
	require.NoError(t, err)

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Tagged",
		Tags:  []TagRef{{Kind: "id", ID: tag.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, b.Tags)

	// Unknown tag ID rejects the write
	_, err = env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Bad tag",
		Tags:  []TagRef{{Kind: "id", ID: "tag-missing"}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBookmarkService_Create_UnknownCollectionBlocksTagCreation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	_, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:         server.URL + "/article",
		Title:       "Doomed",
		Tags:        []TagRef{{Kind: "name", Name: "wouldbecreated"}},
		Collections: []string{"col-missing"},
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	// Collection check ran before tag reconciliation, so nothing was created
	tags, err := env.tags.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestBookmarkService_Create_WithCollections(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	col, err := env.collections.Create(ctx, userID, CreateCollectionRequest{Name: "Work"})
	require.NoError(t, err)

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:         server.URL + "/article",
		Title:       "Collected",
		Collections: []string{col.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{col.ID}, b.Collections)
}

func TestBookmarkService_Update(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Before",
	})
	require.NoError(t, err)

	newTitle := "After"
	read := false
	updated, err := env.bookmarks.Update(ctx, userID, b.ID, UpdateBookmarkRequest{
		Title:    &newTitle,
		IsUnread: &read,
		Tags:     &[]TagRef{{Kind: "name", Name: "later"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.False(t, updated.IsUnread)
	assert.Len(t, updated.Tags, 1)

	// Untouched fields survive
	assert.Equal(t, b.URL, updated.URL)
}

func TestBookmarkService_Update_NotOwned(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.registerTestUser(t, "owner@example.com")
	other := env.registerTestUser(t, "other@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, owner, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Private",
	})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = env.bookmarks.Update(ctx, other, b.ID, UpdateBookmarkRequest{Title: &title})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBookmarkService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Doomed",
	})
	require.NoError(t, err)

	require.NoError(t, env.bookmarks.Delete(ctx, userID, b.ID))

	_, err = env.bookmarks.Get(ctx, userID, b.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = env.bookmarks.Delete(ctx, userID, b.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBookmarkService_BulkDelete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	other := env.registerTestUser(t, "other@example.com")
	server := newPageServer(t, "")

	b1, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/1", Title: "One"})
	require.NoError(t, err)
	b2, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/2", Title: "Two"})
	require.NoError(t, err)
	theirs, err := env.bookmarks.Create(ctx, other, CreateBookmarkRequest{URL: server.URL + "/3", Title: "Theirs"})
	require.NoError(t, err)

	result, err := env.bookmarks.BulkDelete(ctx, userID, []string{b1.ID, b2.ID, theirs.ID, "bm-missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)
	assert.Equal(t, 4, result.RequestedCount)

	// The other user's bookmark survives
	_, err = env.bookmarks.Get(ctx, other, theirs.ID)
	require.NoError(t, err)

	_, err = env.bookmarks.BulkDelete(ctx, userID, nil)
	assert.Error(t, err)
}

func TestBookmarkService_Count(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/1", Title: "One"})
	require.NoError(t, err)
	_, err = env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/2", Title: "Two"})
	require.NoError(t, err)

	read := false
	_, err = env.bookmarks.Update(ctx, userID, b.ID, UpdateBookmarkRequest{IsUnread: &read})
	require.NoError(t, err)

	total, err := env.bookmarks.Count(ctx, userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	unread := true
	count, err := env.bookmarks.Count(ctx, userID, &unread)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBookmarkService_Search(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Distributed Consensus Explained",
	})
	require.NoError(t, err)
	_, err = env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/other",
		Title: "Gardening Tips",
	})
	require.NoError(t, err)

	hits, err := env.bookmarks.Search(ctx, userID, "consensus", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b.ID, hits[0].Bookmark.ID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestBookmarkService_Search_DeletedBookmarkDropped(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	b, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{
		URL:   server.URL + "/article",
		Title: "Ephemeral Notes",
	})
	require.NoError(t, err)

	// Delete from the store only, leaving the index stale
	require.NoError(t, env.store.DeleteBookmark(ctx, userID, b.ID))

	hits, err := env.bookmarks.Search(ctx, userID, "ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBookmarkService_Reindex(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userID := env.registerTestUser(t, "bm@example.com")
	server := newPageServer(t, "")

	_, err := env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/1", Title: "One"})
	require.NoError(t, err)
	_, err = env.bookmarks.Create(ctx, userID, CreateBookmarkRequest{URL: server.URL + "/2", Title: "Two"})
	require.NoError(t, err)

	require.NoError(t, env.index.Rebuild())

	indexed, err := env.bookmarks.Reindex(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)

	hits, err := env.bookmarks.Search(ctx, userID, "two", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
