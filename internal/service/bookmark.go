package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/readlaterapp/readlater-server/internal/domain"
	domainerrors "github.com/readlaterapp/readlater-server/internal/errors"
	"github.com/readlaterapp/readlater-server/internal/id"
	"github.com/readlaterapp/readlater-server/internal/media/preview"
	"github.com/readlaterapp/readlater-server/internal/metadata/og"
	"github.com/readlaterapp/readlater-server/internal/search"
	"github.com/readlaterapp/readlater-server/internal/store"
)

// BookmarkService handles bookmark CRUD, metadata enrichment, and
// tag/collection reconciliation. The search index is kept in sync on
// every write; index failures are logged and never fail the write.
type BookmarkService struct {
	store   *store.Store
	index   *search.Index
	scraper *og.Scraper
	preview *preview.Generator
	logger  *slog.Logger
}

// NewBookmarkService creates a new bookmark service.
func NewBookmarkService(
	s *store.Store,
	index *search.Index,
	scraper *og.Scraper,
	previewGen *preview.Generator,
	logger *slog.Logger,
) *BookmarkService {
	return &BookmarkService{
		store:   s,
		index:   index,
		scraper: scraper,
		preview: previewGen,
		logger:  logger,
	}
}

// TagRef references a tag either by ID (must exist and be owned) or by
// name (found or created with the default color).
type TagRef struct {
	Kind string `json:"kind" validate:"required,oneof=id name"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CreateBookmarkRequest contains the data for saving a URL.
type CreateBookmarkRequest struct {
	URL         string   `json:"url" validate:"required,url"`
	Title       string   `json:"title" validate:"max=500"`
	Description string   `json:"description" validate:"max=500"`
	Image       string   `json:"image"`
	ReadingTime string   `json:"readingTime"`
	Tags        []TagRef `json:"tags" validate:"dive"`
	Collections []string `json:"collections"`
}

// UpdateBookmarkRequest is a partial bookmark update. Nil fields are
// left unchanged; Tags and Collections replace the full list when set.
type UpdateBookmarkRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=500"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Image       *string   `json:"image,omitempty"`
	ReadingTime *string   `json:"readingTime,omitempty"`
	IsUnread    *bool     `json:"isUnread,omitempty"`
	Tags        *[]TagRef `json:"tags,omitempty" validate:"omitempty,dive"`
	Collections *[]string `json:"collections,omitempty"`
}

// BulkDeleteResult reports how many of the requested bookmarks were
// actually deleted. Unowned or missing IDs are silently skipped.
type BulkDeleteResult struct {
	DeletedCount   int `json:"deletedCount"`
	RequestedCount int `json:"requestedCount"`
}

// Create saves a new bookmark. Collections are validated before any tag
// is created, so an unknown collection leaves no trace. Missing title
// or image triggers best-effort page enrichment.
func (s *BookmarkService) Create(ctx context.Context, userID string, req CreateBookmarkRequest) (*domain.Bookmark, error) {
	// Cut before validation so an overlong description never rejects the write
	req.Description = og.TruncateDescription(req.Description)

	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Collections first: reject before find-or-create can mint tags
	if err := s.checkCollections(ctx, userID, req.Collections); err != nil {
		return nil, err
	}

	tagIDs, err := s.reconcileTags(ctx, userID, req.Tags)
	if err != nil {
		return nil, err
	}

	bookmarkID, err := id.Generate(id.PrefixBookmark)
	if err != nil {
		return nil, fmt.Errorf("generate bookmark ID: %w", err)
	}

	b := &domain.Bookmark{
		UserID:      userID,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		ReadingTime: req.ReadingTime,
		IsUnread:    true,
		Tags:        tagIDs,
		Collections: req.Collections,
	}
	b.ID = bookmarkID
	b.InitTimestamps()

	s.enrich(ctx, b)

	if err := s.store.CreateBookmark(ctx, b); err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.indexBookmark(ctx, b)

	if s.logger != nil {
		s.logger.Info("bookmark created", "user_id", userID, "bookmark_id", b.ID)
	}

	return b, nil
}

// Get returns one of the user's bookmarks.
func (s *BookmarkService) Get(ctx context.Context, userID, bookmarkID string) (*domain.Bookmark, error) {
	b, err := s.store.GetBookmark(ctx, userID, bookmarkID)
	if err != nil {
		if errors.Is(err, store.ErrBookmarkNotFound) {
			return nil, domainerrors.NotFound("bookmark not found")
		}
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

// Update applies a partial update with the same reconciliation rules
// as Create.
func (s *BookmarkService) Update(ctx context.Context, userID, bookmarkID string, req UpdateBookmarkRequest) (*domain.Bookmark, error) {
	if req.Description != nil {
		trimmed := og.TruncateDescription(*req.Description)
		req.Description = &trimmed
	}

	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	b, err := s.Get(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}

	// Collections validated before any tag creation, as in Create
	if req.Collections != nil {
		if err := s.checkCollections(ctx, userID, *req.Collections); err != nil {
			return nil, err
		}
	}

	if req.Tags != nil {
		tagIDs, err := s.reconcileTags(ctx, userID, *req.Tags)
		if err != nil {
			return nil, err
		}
		b.Tags = tagIDs
	}

	if req.Collections != nil {
		b.Collections = *req.Collections
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Image != nil {
		b.Image = *req.Image
		b.BlurHash = ""
		if *req.Image != "" {
			s.computeBlurHash(ctx, b)
		}
	}
	if req.ReadingTime != nil {
		b.ReadingTime = *req.ReadingTime
	}
	if req.IsUnread != nil {
		b.IsUnread = *req.IsUnread
	}

	if err := s.store.UpdateBookmark(ctx, b); err != nil {
		if errors.Is(err, store.ErrBookmarkNotFound) {
			return nil, domainerrors.NotFound("bookmark not found")
		}
		return nil, fmt.Errorf("update bookmark: %w", err)
	}

	s.indexBookmark(ctx, b)

	return b, nil
}

// Delete removes one of the user's bookmarks.
func (s *BookmarkService) Delete(ctx context.Context, userID, bookmarkID string) error {
	if err := s.store.DeleteBookmark(ctx, userID, bookmarkID); err != nil {
		if errors.Is(err, store.ErrBookmarkNotFound) {
			return domainerrors.NotFound("bookmark not found")
		}
		return fmt.Errorf("delete bookmark: %w", err)
	}

	if err := s.index.DeleteDocument(bookmarkID); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove bookmark from search index",
			"bookmark_id", bookmarkID, "error", err)
	}

	return nil
}

// BulkDelete removes the given bookmarks, skipping IDs that don't
// exist or aren't owned by the user.
func (s *BookmarkService) BulkDelete(ctx context.Context, userID string, ids []string) (*BulkDeleteResult, error) {
	if len(ids) == 0 {
		return nil, domainerrors.Validation("ids must not be empty")
	}

	deleted, err := s.store.BulkDeleteBookmarks(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("bulk delete bookmarks: %w", err)
	}

	if err := s.index.DeleteDocuments(ids); err != nil && s.logger != nil {
		s.logger.Warn("failed to remove bookmarks from search index", "error", err)
	}

	return &BulkDeleteResult{
		DeletedCount:   deleted,
		RequestedCount: len(ids),
	}, nil
}

// List runs a filtered, sorted, cursor-paginated bookmark query.
func (s *BookmarkService) List(ctx context.Context, userID string, q store.BookmarkQuery) (*store.PaginatedResult[*domain.Bookmark], error) {
	result, err := s.store.QueryBookmarks(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	return result, nil
}

// Count counts the user's bookmarks, optionally filtered by unread state.
func (s *BookmarkService) Count(ctx context.Context, userID string, isUnread *bool) (int, error) {
	count, err := s.store.CountBookmarks(ctx, userID, isUnread)
	if err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	return count, nil
}

// SearchHit is a ranked search result with its bookmark.
type SearchHit struct {
	Bookmark   *domain.Bookmark  `json:"bookmark"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs a ranked full-text query over the user's bookmarks.
// Hits whose bookmark has since been deleted are dropped.
func (s *BookmarkService) Search(ctx context.Context, userID, query string, limit int) ([]SearchHit, error) {
	params := search.DefaultParams(userID)
	params.Query = query
	if limit > 0 {
		params.Limit = limit
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search bookmarks: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		b, err := s.store.GetBookmark(ctx, userID, hit.ID)
		if err != nil {
			// Stale index entry
			continue
		}
		hits = append(hits, SearchHit{
			Bookmark:   b,
			Score:      hit.Score,
			Highlights: hit.Highlights,
		})
	}

	return hits, nil
}

// Reindex rebuilds the search index from the user's stored bookmarks.
func (s *BookmarkService) Reindex(ctx context.Context, userID string) (int, error) {
	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list bookmarks: %w", err)
	}

	docs := make([]*search.Document, 0, len(bookmarks))
	for _, b := range bookmarks {
		docs = append(docs, search.BookmarkDocument(b, s.tagNames(ctx, userID, b.Tags)))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index bookmarks: %w", err)
	}

	return len(docs), nil
}

// checkCollections verifies that every collection ID belongs to the user.
func (s *BookmarkService) checkCollections(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ok, err := s.store.CollectionsExist(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("check collections: %w", err)
	}
	if !ok {
		return domainerrors.Validation("one or more collections do not exist")
	}
	return nil
}

// reconcileTags resolves tag references to tag IDs in input order,
// preserving duplicates. ID references must name an owned tag; name
// references are found or created with the default color.
func (s *BookmarkService) reconcileTags(ctx context.Context, userID string, refs []TagRef) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	tagIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		switch ref.Kind {
		case "id":
			if ref.ID == "" {
				return nil, domainerrors.Validation("tag reference by id requires an id")
			}
			tag, err := s.store.GetTag(ctx, userID, ref.ID)
			if err != nil {
				if errors.Is(err, store.ErrTagNotFound) {
					return nil, domainerrors.NotFoundf("tag %s not found", ref.ID)
				}
				return nil, fmt.Errorf("get tag: %w", err)
			}
			tagIDs = append(tagIDs, tag.ID)
		case "name":
			if ref.Name == "" {
				return nil, domainerrors.Validation("tag reference by name requires a name")
			}
			tag, _, err := s.store.FindOrCreateTag(ctx, userID, ref.Name)
			if err != nil {
				return nil, fmt.Errorf("find or create tag: %w", err)
			}
			tagIDs = append(tagIDs, tag.ID)
		default:
			return nil, domainerrors.Validationf("unknown tag reference kind %q", ref.Kind)
		}
	}

	return tagIDs, nil
}

// enrich fills missing title, description, and image from the page's
// Open Graph metadata, plus a reading-time estimate. All failures are
// swallowed; a bookmark write never depends on the remote page.
func (s *BookmarkService) enrich(ctx context.Context, b *domain.Bookmark) {
	if b.Title != "" && b.Image != "" {
		s.computeBlurHash(ctx, b)
		return
	}

	meta, err := s.scraper.Fetch(ctx, b.URL)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("metadata enrichment failed", "url", b.URL, "error", err)
		}
		return
	}

	if b.Title == "" {
		b.Title = meta.Title
	}
	if b.Description == "" {
		b.Description = meta.Description
	}
	if b.Image == "" {
		b.Image = meta.Image
	}
	if b.ReadingTime == "" {
		b.ReadingTime = meta.ReadingTime
	}

	if b.Image != "" {
		s.computeBlurHash(ctx, b)
	}
}

// computeBlurHash attaches a placeholder hash for the bookmark image,
// best-effort.
func (s *BookmarkService) computeBlurHash(ctx context.Context, b *domain.Bookmark) {
	hash, err := s.preview.FromURL(ctx, b.Image)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("blurhash computation failed", "image", b.Image, "error", err)
		}
		return
	}
	b.BlurHash = hash
}

// indexBookmark writes the bookmark's search document, best-effort.
func (s *BookmarkService) indexBookmark(ctx context.Context, b *domain.Bookmark) {
	doc := search.BookmarkDocument(b, s.tagNames(ctx, b.UserID, b.Tags))
	if err := s.index.IndexDocument(doc); err != nil && s.logger != nil {
		s.logger.Warn("failed to index bookmark", "bookmark_id", b.ID, "error", err)
	}
}

// tagNames resolves tag IDs to names for search indexing, skipping
// anything that can't be loaded.
func (s *BookmarkService) tagNames(ctx context.Context, userID string, tagIDs []string) []string {
	if len(tagIDs) == 0 {
		return nil
	}

	names := make([]string, 0, len(tagIDs))
	seen := make(map[string]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		tag, err := s.store.GetTag(ctx, userID, tagID)
		if err != nil {
			continue
		}
		names = append(names, tag.Name)
	}
	return names
}
