package app

import (
	"context"

	"product-scraper/internal/config"
	"product-scraper/internal/fetcher"
	"product-scraper/internal/normalize"
	"product-scraper/internal/observability"
	"product-scraper/internal/render"
	"product-scraper/internal/render/browser"
	"product-scraper/internal/render/static"
)

// NewSessionOpener выбирает бэкенд рендеринга: headless Chrome при rod.enabled,
// иначе загрузка HTML по HTTP
func NewSessionOpener(cfg *config.Config, logger *observability.Logger) render.Opener {
	if cfg.Rod.Enabled {
		return func(ctx context.Context) (render.Session, error) {
			s, err := browser.Open(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	f := fetcher.NewFetcher(cfg, logger)
	n := normalize.NewNormalizer(cfg)
	return func(ctx context.Context) (render.Session, error) {
		return static.NewSession(f, n, logger), nil
	}
}
