package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readlaterapp/readlater-server/internal/http/response"
	"github.com/readlaterapp/readlater-server/internal/service"
	"github.com/readlaterapp/readlater-server/internal/store"
)

// handleListBookmarks returns a filtered, cursor-paginated bookmark page.
func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	query, err := parseBookmarkQuery(r)
	if err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	result, err := s.bookmarkService.List(ctx, userID, query)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleSearchBookmarks runs a ranked full-text search.
func (s *Server) handleSearchBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "Query parameter 'q' is required", s.logger)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	hits, err := s.bookmarkService.Search(ctx, userID, query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, hits, s.logger)
}

// handleCountBookmarks returns the user's bookmark count, optionally
// filtered by unread state.
func (s *Server) handleCountBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	isUnread, err := parseBoolParam(r, "isUnread")
	if err != nil {
		response.BadRequest(w, err.Error(), s.logger)
		return
	}

	count, err := s.bookmarkService.Count(ctx, userID, isUnread)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]int{"count": count}, s.logger)
}

// handleCreateBookmark saves a new bookmark.
func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req service.CreateBookmarkRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	bookmark, err := s.bookmarkService.Create(ctx, userID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, bookmark, s.logger)
}

// handleGetBookmark returns a single bookmark by ID.
func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	bookmark, err := s.bookmarkService.Get(ctx, userID, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmark, s.logger)
}

// handleUpdateBookmark applies a partial bookmark update.
func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	var req service.UpdateBookmarkRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	bookmark, err := s.bookmarkService.Update(ctx, userID, id, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, bookmark, s.logger)
}

// handleDeleteBookmark removes a single bookmark.
func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	id := chi.URLParam(r, "id")

	if err := s.bookmarkService.Delete(ctx, userID, id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.SuccessMessage(w, "Bookmark deleted", s.logger)
}

// bulkDeleteRequest carries the IDs for a bulk bookmark delete.
type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// handleBulkDeleteBookmarks removes a batch of bookmarks, skipping IDs
// that don't exist or aren't owned by the user.
func (s *Server) handleBulkDeleteBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req bulkDeleteRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	result, err := s.bookmarkService.BulkDelete(ctx, userID, req.IDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// parseBookmarkQuery builds a bookmark query from URL query parameters.
// Unparsable limits and cursors fall back to defaults; malformed dates
// and unread flags are rejected.
func parseBookmarkQuery(r *http.Request) (store.BookmarkQuery, error) {
	values := r.URL.Query()

	query := store.BookmarkQuery{
		Search:      values.Get("search"),
		Tags:        values["tags"],
		Collections: values["collections"],
		Sort:        values.Get("sort"),
		Page: store.PaginationParams{
			Cursor: values.Get("cursor"),
		},
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			query.Page.Limit = limit
		}
	}

	isUnread, err := parseBoolParam(r, "isUnread")
	if err != nil {
		return store.BookmarkQuery{}, err
	}
	query.IsUnread = isUnread

	if query.DateFrom, err = parseTimeParam(r, "dateFrom"); err != nil {
		return store.BookmarkQuery{}, err
	}
	if query.DateTo, err = parseTimeParam(r, "dateTo"); err != nil {
		return store.BookmarkQuery{}, err
	}

	return query, nil
}

// parseBoolParam returns nil when the parameter is absent.
func parseBoolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &paramError{name: name, want: "a boolean"}
	}
	return &value, nil
}

// parseTimeParam returns nil when the parameter is absent.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &paramError{name: name, want: "an RFC 3339 timestamp"}
	}
	return &value, nil
}

// paramError describes a malformed query parameter.
type paramError struct {
	name string
	want string
}

func (e *paramError) Error() string {
	return "Query parameter '" + e.name + "' must be " + e.want
}
