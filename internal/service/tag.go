package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/readlaterapp/readlater-server/internal/domain"
	domainerrors "github.com/readlaterapp/readlater-server/internal/errors"
	"github.com/readlaterapp/readlater-server/internal/id"
	"github.com/readlaterapp/readlater-server/internal/normalize"
	"github.com/readlaterapp/readlater-server/internal/search"
	"github.com/readlaterapp/readlater-server/internal/store"
)

// TagService handles tag CRUD and usage counts.
type TagService struct {
	store  *store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(s *store.Store, index *search.Index, logger *slog.Logger) *TagService {
	return &TagService{
		store:  s,
		index:  index,
		logger: logger,
	}
}

// CreateTagRequest contains the data for a new tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateTagRequest is a partial tag update.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=64"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// List returns the user's tags with bookmark counts, sorted by count
// descending then name ascending.
func (s *TagService) List(ctx context.Context, userID string) ([]*domain.TagWithCount, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	counts, err := s.store.CountBookmarksPerTag(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookmarks per tag: %w", err)
	}

	result := make([]*domain.TagWithCount, 0, len(tags))
	for _, tag := range tags {
		result = append(result, &domain.TagWithCount{
			Tag:   *tag,
			Count: counts[tag.ID],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Create makes a new tag. The name is normalized; an equivalent
// existing name is a conflict.
func (s *TagService) Create(ctx context.Context, userID string, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	name := normalize.TagName(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	color := req.Color
	if color == "" {
		color = domain.DefaultTagColor
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	tag := &domain.Tag{
		UserID: userID,
		Name:   name,
		Color:  color,
	}
	tag.ID = tagID
	tag.InitTimestamps()

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, domainerrors.AlreadyExists("tag name already in use")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	return tag, nil
}

// Update renames or recolors a tag. Renames are uniqueness-checked
// against the normalized name.
func (s *TagService) Update(ctx context.Context, userID, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, userID, tagID)
	if err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	if req.Name != nil {
		name := normalize.TagName(*req.Name)
		if name == "" {
			return nil, domainerrors.Validation("name must not be empty")
		}
		tag.Name = name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrTagExists) {
			return nil, domainerrors.AlreadyExists("tag name already in use")
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}

	return tag, nil
}

// Delete removes a tag, detaching it from every bookmark first.
// Bookmarks themselves are never deleted.
func (s *TagService) Delete(ctx context.Context, userID, tagID string) error {
	// Detach before delete so no bookmark ever references a missing tag
	modified, err := s.store.DetachTagFromBookmarks(ctx, userID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}

	if err := s.store.DeleteTag(ctx, userID, tagID); err != nil {
		if errors.Is(err, store.ErrTagNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	// Refresh search documents for the bookmarks that lost the tag,
	// best-effort
	s.reindexBookmarks(ctx, userID, modified)

	if s.logger != nil {
		s.logger.Info("tag deleted",
			"user_id", userID,
			"tag_id", tagID,
			"bookmarks_detached", len(modified),
		)
	}

	return nil
}

// reindexBookmarks rewrites search documents for the given bookmarks.
func (s *TagService) reindexBookmarks(ctx context.Context, userID string, ids []string) {
	for _, bookmarkID := range ids {
		b, err := s.store.GetBookmark(ctx, userID, bookmarkID)
		if err != nil {
			continue
		}

		names := make([]string, 0, len(b.Tags))
		for _, tid := range b.Tags {
			tag, err := s.store.GetTag(ctx, userID, tid)
			if err != nil {
				continue
			}
			names = append(names, tag.Name)
		}

		if err := s.index.IndexDocument(search.BookmarkDocument(b, names)); err != nil && s.logger != nil {
			s.logger.Warn("failed to reindex bookmark", "bookmark_id", bookmarkID, "error", err)
		}
	}
}
