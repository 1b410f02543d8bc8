package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlaterapp/readlater-server/internal/domain"
)

func TestCreateCollection(t *testing.T) {
	server := setupTestServer(t)
	token, _ := registerAndLogin(t, server, "col@example.com")

	resp := doRequest(t, server, http.MethodPost, "/api/v1/collections", token, map[string]string{
		"name":        "Work Reading",
		"description": "Articles for work",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	env := decodeEnvelope[*domain.Collection](t, resp)
	assert.Equal(t, "Work Reading", env.Data.Name)
	assert.Equal(t, domain.DefaultCollectionIcon, env.Data.Icon)
}

func TestCreateCollection_Duplicate(t *testing.T) {
	server := setupTestServer(t)
	token, _ := registerAndLogin(t, server, "col@example.com")

	resp := doRequest(t, server, http.MethodPost, "/api/v1/collections", token, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doRequest(t, server, http.MethodPost, "/api/v1/collections", token, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, "collection name already in use", env.Message)
}

func TestListCollections_SmartFirst(t *testing.T) {
	server := setupTestServer(t)
	token, _ := registerAndLogin(t, server, "col@example.com")
	page := newPageServer(t, "Page")

	resp := doRequest(t, server, http.MethodPost, "/api/v1/collections", token, map[string]string{"name": "Work"})
	require.Equal(t, http.StatusCreated, resp.Code)
	created := decodeEnvelope[*domain.Collection](t, resp)

	resp = doRequest(t, server, http.MethodPost, "/api/v1/bookmarks", token, map[string]any{
		"url":         page.URL,
		"title":       "Filed",
		"collections": []string{created.Data.ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doRequest(t, server, http.MethodGet, "/api/v1/collections", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[[]*domain.CollectionWithCount](t, resp)
	require.Len(t, env.Data, 4)
	assert.Equal(t, domain.SmartCollectionAll, env.Data[0].ID)
	assert.Equal(t, 1, env.Data[0].BookmarkCount)
	assert.Equal(t, domain.SmartCollectionUnread, env.Data[1].ID)
	assert.Equal(t, domain.SmartCollectionRecent, env.Data[2].ID)
	assert.Equal(t, created.Data.ID, env.Data[3].ID)
	assert.Equal(t, 1, env.Data[3].BookmarkCount)
}
