// Package search provides full-text search over bookmarks using Bleve.
// Queries are always scoped to a single user, with fuzzy matching and
// prefix matching for typo tolerance and autocomplete.
package search

import (
	"github.com/readlaterapp/readlater-server/internal/domain"
)

// Document is the bookmark representation stored in the Bleve index.
// Tag names are denormalized into the document so a search for "golang"
// finds bookmarks tagged golang without a store lookup per query.
type Document struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"` // Normalized tag names

	// Timestamps for sorting, Unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.URL != "" {
		m["url"] = d.URL
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}

	return m
}

// BookmarkDocument converts a bookmark to its index document.
// Tag names are provided by the caller, as the search package shouldn't
// depend on store.
func BookmarkDocument(b *domain.Bookmark, tagNames []string) *Document {
	return &Document{
		ID:          b.ID,
		UserID:      b.UserID,
		Title:       b.Title,
		Description: b.Description,
		URL:         b.URL,
		Tags:        tagNames,
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
	}
}
