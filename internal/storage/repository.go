package storage

import (
	"context"

	"product-scraper/internal/scraper"
)

// Sink принимает готовый датасет целиком
type Sink interface {
	// Name - короткое имя приёмника для логов
	Name() string

	// Save сохраняет все записи датасета в исходном порядке
	Save(ctx context.Context, dataset scraper.Dataset) error

	Close() error
}

// Columns - заголовки колонок, общие для всех приёмников
var Columns = []string{"Title", "Price", "Rating"}
