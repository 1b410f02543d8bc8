package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/readlaterapp/readlater-server/internal/http/response"
	"github.com/readlaterapp/readlater-server/internal/service"
)

// handleListCollections returns smart collections followed by the
// user's real collections, each with its bookmark count.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.collectionService.List(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, collections, s.logger)
}

// handleCreateCollection creates a new collection.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateCollectionRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	collection, err := s.collectionService.Create(ctx, getUserID(ctx), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, collection, s.logger)
}
