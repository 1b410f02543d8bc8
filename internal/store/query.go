package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/readlaterapp/readlater-server/internal/domain"
)

// Sort fields accepted by bookmark queries.
const (
	SortCreatedAt = "createdAt"
	SortTitle     = "title"
)

// BookmarkQuery describes a filtered, sorted, cursor-paginated listing
// of a user's bookmarks. Zero values mean "no filter".
type BookmarkQuery struct {
	// Search matches case-insensitively as a substring of title,
	// description, or URL (any of the three).
	Search string
	// Tags keeps bookmarks referencing at least one of these tag IDs.
	Tags []string
	// Collections keeps bookmarks in at least one of these collection IDs.
	Collections []string
	// IsUnread filters on the unread flag when non-nil.
	IsUnread *bool
	// DateFrom/DateTo bound CreatedAt inclusively when non-nil.
	DateFrom *time.Time
	DateTo   *time.Time
	// Sort is "createdAt" or "title", with an optional leading "-" for
	// descending. Defaults to "-createdAt" (newest first).
	Sort string
	// Page carries limit and cursor.
	Page PaginationParams
}

// sortSpec is a parsed Sort value.
type sortSpec struct {
	field string
	desc  bool
}

func parseSort(s string) sortSpec {
	if s == "" {
		return sortSpec{field: SortCreatedAt, desc: true}
	}
	spec := sortSpec{field: s}
	if strings.HasPrefix(s, "-") {
		spec.desc = true
		spec.field = s[1:]
	}
	if spec.field != SortCreatedAt && spec.field != SortTitle {
		return sortSpec{field: SortCreatedAt, desc: true}
	}
	return spec
}

// QueryBookmarks runs a filtered listing over one user's bookmarks.
//
// The full result set is ordered before the cursor is applied, so
// concatenating pages over an unchanged data set yields every matching
// bookmark exactly once. One extra item is fetched to decide hasMore
// without a second scan.
func (s *Store) QueryBookmarks(ctx context.Context, userID string, q BookmarkQuery) (*PaginatedResult[*domain.Bookmark], error) {
	q.Page.Validate()

	all, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Bookmark, 0, len(all))
	for _, b := range all {
		if q.matches(b) {
			matched = append(matched, b)
		}
	}

	spec := parseSort(q.Sort)
	sortBookmarks(matched, spec)
	matched = applyCursor(matched, spec, q.Page.Cursor)

	hasMore := len(matched) > q.Page.Limit
	if hasMore {
		matched = matched[:q.Page.Limit]
	}

	result := &PaginatedResult[*domain.Bookmark]{
		Items: matched,
		Pagination: Pagination{
			Limit:   q.Page.Limit,
			HasMore: hasMore,
		},
	}
	if hasMore && len(matched) > 0 {
		result.Pagination.NextCursor = cursorFor(matched[len(matched)-1], spec)
	}

	return result, nil
}

// matches reports whether a bookmark passes every filter in the query.
func (q *BookmarkQuery) matches(b *domain.Bookmark) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Description), needle) &&
			!strings.Contains(strings.ToLower(b.URL), needle) {
			return false
		}
	}

	if len(q.Tags) > 0 && !referencesAny(b.Tags, q.Tags) {
		return false
	}

	if len(q.Collections) > 0 && !referencesAny(b.Collections, q.Collections) {
		return false
	}

	if q.IsUnread != nil && b.IsUnread != *q.IsUnread {
		return false
	}

	if q.DateFrom != nil && b.CreatedAt.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && b.CreatedAt.After(*q.DateTo) {
		return false
	}

	return true
}

func referencesAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// sortBookmarks orders the slice per the sort spec, breaking ties by ID
// so the order is total and pagination is stable.
func sortBookmarks(items []*domain.Bookmark, spec sortSpec) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if spec.desc {
			a, b = b, a
		}

		switch spec.field {
		case SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

// applyCursor drops everything up to and including the cursor position.
//
// For time sorts the cursor is the last item's CreatedAt and items are
// kept on strict inequality in the sort direction. For title sorts the
// cursor is the last item's ID and the page resumes after that item's
// position in the ordered set. An unparsable or unknown cursor is
// silently ignored and the first page is returned.
func applyCursor(items []*domain.Bookmark, spec sortSpec, cursor string) []*domain.Bookmark {
	if cursor == "" {
		return items
	}

	if spec.field == SortCreatedAt {
		cursorTime, err := parseCursorTime(cursor)
		if err != nil {
			return items
		}
		kept := items[:0]
		for _, b := range items {
			if spec.desc {
				if b.CreatedAt.Before(cursorTime) {
					kept = append(kept, b)
				}
			} else {
				if b.CreatedAt.After(cursorTime) {
					kept = append(kept, b)
				}
			}
		}
		return kept
	}

	// ID cursor: resume after the cursor item's position.
	for i, b := range items {
		if b.ID == cursor {
			return items[i+1:]
		}
	}
	return items
}

func parseCursorTime(cursor string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, cursor); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, cursor)
}

// cursorFor renders the next-page cursor from the last item on a page.
func cursorFor(b *domain.Bookmark, spec sortSpec) string {
	if spec.field == SortCreatedAt {
		return b.CreatedAt.Format(time.RFC3339Nano)
	}
	return b.ID
}
