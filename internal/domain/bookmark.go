package domain

// Bookmark represents a saved URL with user-supplied or enriched metadata.
//
// Tags and Collections hold the IDs of owned Tag/Collection records.
// Tag references may contain duplicates when the caller submits the same
// tag twice; the duplicate-preserving behavior is deliberate.
type Bookmark struct {
	Timestamps
	UserID      string   `json:"user"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	BlurHash    string   `json:"blurHash,omitempty"` // Placeholder hash for the image, computed best-effort
	ReadingTime string   `json:"readingTime,omitempty"`
	IsUnread    bool     `json:"isUnread"`
	Tags        []string `json:"tags"`
	Collections []string `json:"collections"`
}

// HasTag reports whether the bookmark references the given tag.
func (b *Bookmark) HasTag(tagID string) bool {
	for _, id := range b.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}

// HasCollection reports whether the bookmark references the given collection.
func (b *Bookmark) HasCollection(collectionID string) bool {
	for _, id := range b.Collections {
		if id == collectionID {
			return true
		}
	}
	return false
}

// RemoveTag deletes every reference to tagID from the bookmark's tag set.
// Returns true if anything was removed.
func (b *Bookmark) RemoveTag(tagID string) bool {
	kept := b.Tags[:0]
	removed := false
	for _, id := range b.Tags {
		if id == tagID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	b.Tags = kept
	return removed
}
