package domain

// DefaultTagColor is assigned to tags created implicitly during bookmark
// writes, when the caller supplies a name without a color.
const DefaultTagColor = "#6366f1"

// Tag represents a user-owned label for bookmarks.
// Name is stored normalized (lowercase, trimmed) and is unique per user.
type Tag struct {
	Timestamps
	UserID string `json:"user"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
}

// TagWithCount pairs a tag with the number of bookmarks referencing it.
// The count is computed at read time, never persisted.
type TagWithCount struct {
	Tag
	Count int `json:"count"`
}
