package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readlaterapp/readlater-server/internal/domain"
	domainerrors "github.com/readlaterapp/readlater-server/internal/errors"
	"github.com/readlaterapp/readlater-server/internal/id"
	"github.com/readlaterapp/readlater-server/internal/normalize"
	"github.com/readlaterapp/readlater-server/internal/store"
)

// recentWindow is how far back the "recent" smart collection reaches.
const recentWindow = 7 * 24 * time.Hour

// CollectionService handles collection listing and creation. Listings
// prepend the three smart collections (all, unread, recent), which are
// computed on the fly and never persisted.
type CollectionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(s *store.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:  s,
		logger: logger,
	}
}

// CreateCollectionRequest contains the data for a new collection.
type CreateCollectionRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=16"`
}

// List returns smart collections followed by the user's real
// collections (creation order), each with its bookmark count.
func (s *CollectionService) List(ctx context.Context, userID string) ([]*domain.CollectionWithCount, error) {
	smart, err := s.smartCollections(ctx, userID)
	if err != nil {
		return nil, err
	}

	collections, err := s.store.ListCollections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	counts, err := s.store.CountBookmarksPerCollection(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count bookmarks per collection: %w", err)
	}

	result := make([]*domain.CollectionWithCount, 0, len(smart)+len(collections))
	result = append(result, smart...)
	for _, c := range collections {
		result = append(result, &domain.CollectionWithCount{
			Collection:    *c,
			BookmarkCount: counts[c.ID],
		})
	}

	return result, nil
}

// Create makes a new collection with a per-user unique name.
func (s *CollectionService) Create(ctx context.Context, userID string, req CreateCollectionRequest) (*domain.Collection, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	name := normalize.CollectionName(req.Name)
	if name == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	icon := req.Icon
	if icon == "" {
		icon = domain.DefaultCollectionIcon
	}

	collectionID, err := id.Generate(id.PrefixCollection)
	if err != nil {
		return nil, fmt.Errorf("generate collection ID: %w", err)
	}

	c := &domain.Collection{
		UserID:      userID,
		Name:        name,
		Description: req.Description,
		Icon:        icon,
	}
	c.ID = collectionID
	c.InitTimestamps()

	if err := s.store.CreateCollection(ctx, c); err != nil {
		if errors.Is(err, store.ErrCollectionExists) {
			return nil, domainerrors.AlreadyExists("collection name already in use")
		}
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return c, nil
}

// smartCollections computes the fixed all/unread/recent pseudo-collections.
func (s *CollectionService) smartCollections(ctx context.Context, userID string) ([]*domain.CollectionWithCount, error) {
	total, err := s.store.CountBookmarks(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("count bookmarks: %w", err)
	}

	unreadOnly := true
	unread, err := s.store.CountBookmarks(ctx, userID, &unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("count unread bookmarks: %w", err)
	}

	recent, err := s.countRecent(ctx, userID)
	if err != nil {
		return nil, err
	}

	return []*domain.CollectionWithCount{
		smartCollection(domain.SmartCollectionAll, "All Bookmarks", domain.SmartCollectionAllIcon, total),
		smartCollection(domain.SmartCollectionUnread, "Unread", domain.SmartCollectionUnreadIcon, unread),
		smartCollection(domain.SmartCollectionRecent, "Recently Added", domain.SmartCollectionRecentIcon, recent),
	}, nil
}

// countRecent counts bookmarks created inside the recent window.
func (s *CollectionService) countRecent(ctx context.Context, userID string) (int, error) {
	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list bookmarks: %w", err)
	}

	cutoff := time.Now().Add(-recentWindow)
	count := 0
	for _, b := range bookmarks {
		if b.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func smartCollection(smartType, name, icon string, count int) *domain.CollectionWithCount {
	c := &domain.CollectionWithCount{
		BookmarkCount:       count,
		IsSmartCollection:   true,
		SmartCollectionType: smartType,
	}
	c.ID = smartType
	c.Name = name
	c.Icon = icon
	return c
}
