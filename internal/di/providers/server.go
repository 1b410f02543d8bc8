package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/readlaterapp/readlater-server/internal/api"
	"github.com/readlaterapp/readlater-server/internal/auth"
	"github.com/readlaterapp/readlater-server/internal/config"
	"github.com/readlaterapp/readlater-server/internal/logger"
	"github.com/readlaterapp/readlater-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)

	authService := do.MustInvoke[*service.AuthService](i)
	bookmarkService := do.MustInvoke[*service.BookmarkService](i)
	tagService := do.MustInvoke[*service.TagService](i)
	collectionService := do.MustInvoke[*service.CollectionService](i)

	handler := api.NewServer(authService, bookmarkService, tagService, collectionService, tokenService, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}

// TriggerSearchReindexIfNeeded rebuilds search documents when the index
// is empty but bookmarks exist, e.g. after a mapping-version rebuild.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	bookmarkService := do.MustInvoke[*service.BookmarkService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	users, err := storeHandle.ListUsers(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	go func() {
		reindexCtx := context.Background()
		total := 0
		for _, user := range users {
			indexed, err := bookmarkService.Reindex(reindexCtx, user.ID)
			if err != nil {
				log.Error("Search reindex failed", "user_id", user.ID, "error", err)
				continue
			}
			total += indexed
		}
		if total > 0 {
			log.Info("Search reindex completed", "documents", total)
		}
	}()
}
