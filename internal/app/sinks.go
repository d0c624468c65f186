package app

import (
	"fmt"

	"product-scraper/internal/config"
	"product-scraper/internal/observability"
	"product-scraper/internal/storage"
	"product-scraper/internal/storage/spreadsheet"
	"product-scraper/internal/storage/sqlstore"
)

// BuildSinks создаёт включённые в конфиге приёмники.
// Уже открытые приёмники закрываются, если следующий не создался.
func BuildSinks(cfg *config.Config, logger *observability.Logger) ([]storage.Sink, error) {
	var sinks []storage.Sink

	if cfg.Storage.Driver != "" {
		dialect, err := sqlstore.DialectByName(cfg.Storage.Driver)
		if err != nil {
			return nil, err
		}
		repo, err := sqlstore.NewRepository(dialect, cfg.Storage.DSN, cfg.GetCommandTimeout(), cfg.Storage.BatchSize, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s sink: %w", dialect.Name, err)
		}
		sinks = append(sinks, repo)
	}

	if cfg.Spreadsheet.Path != "" {
		sinks = append(sinks, spreadsheet.NewWriter(cfg.Spreadsheet.Path, cfg.Spreadsheet.SheetName, logger))
	}

	return sinks, nil
}

// CloseSinks закрывает приёмники и логирует ошибки
func CloseSinks(sinks []storage.Sink, logger *observability.Logger) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			logger.Error("Failed to close sink", "sink", s.Name(), "error", err.Error())
		}
	}
}
