package providers

import (
	"github.com/samber/do/v2"

	"github.com/readlaterapp/readlater-server/internal/config"
	"github.com/readlaterapp/readlater-server/internal/logger"
	"github.com/readlaterapp/readlater-server/internal/media/preview"
	"github.com/readlaterapp/readlater-server/internal/metadata/og"
)

// ScraperHandle wraps the page scraper with shutdown capability.
type ScraperHandle struct {
	*og.Scraper
}

// Shutdown implements do.Shutdownable.
func (h *ScraperHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideScraper provides the Open Graph page scraper.
func ProvideScraper(i do.Injector) (*ScraperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	scraper := og.NewScraper(og.Options{
		Timeout:   cfg.Scraper.Timeout,
		Retries:   cfg.Scraper.Retries,
		UserAgent: cfg.Scraper.UserAgent,
		Logger:    log.Logger,
	})

	return &ScraperHandle{Scraper: scraper}, nil
}

// ProvidePreviewGenerator provides the blurhash preview generator.
func ProvidePreviewGenerator(i do.Injector) (*preview.Generator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return preview.NewGenerator(log.Logger), nil
}
