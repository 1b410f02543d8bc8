package domain

// DefaultCollectionIcon is assigned when a collection is created without one.
const DefaultCollectionIcon = "📁"

// Smart collection identifiers. These are fixed strings, never persisted,
// and synthesized on every collection listing.
const (
	SmartCollectionAll    = "all"
	SmartCollectionUnread = "unread"
	SmartCollectionRecent = "recent"
)

// Fixed icons for the smart collections.
const (
	SmartCollectionAllIcon    = "⭐"
	SmartCollectionUnreadIcon = "📖"
	SmartCollectionRecentIcon = "🔥"
)

// Collection represents a user-owned grouping of bookmarks.
// Name is unique per user.
type Collection struct {
	Timestamps
	UserID      string `json:"user"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// CollectionWithCount is the listing shape for both real and smart
// collections. For smart collections ID is one of the SmartCollection
// constants and IsSmartCollection is true.
type CollectionWithCount struct {
	Collection
	BookmarkCount       int    `json:"bookmarkCount"`
	IsSmartCollection   bool   `json:"isSmartCollection,omitempty"`
	SmartCollectionType string `json:"smartCollectionType,omitempty"`
}
