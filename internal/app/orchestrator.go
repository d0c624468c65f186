package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"product-scraper/internal/checksum"
	"product-scraper/internal/config"
	"product-scraper/internal/observability"
	"product-scraper/internal/render"
	"product-scraper/internal/scraper"
	"product-scraper/internal/storage"
)

// ErrNoDataset - сохранение запрошено до первого успешного скрейпа
var ErrNoDataset = errors.New("no dataset: scrape data first")

// Target - что и сколько страниц скрейпить
type Target struct {
	BaseURL   string
	Pages     int
	Selectors scraper.SelectorSet
}

// Validate отклоняет неполный ввод до открытия сессии
func (t Target) Validate() error {
	if t.BaseURL == "" || t.Pages < 1 {
		return fmt.Errorf("%w: please fill all input fields", scraper.ErrInvalidTarget)
	}
	if err := t.Selectors.Validate(); err != nil {
		return fmt.Errorf("please fill all input fields: %w", err)
	}
	return nil
}

// Run - итог одного успешного скрейпа
type Run struct {
	ID          string
	Target      Target
	Dataset     scraper.Dataset
	Stats       scraper.PaginationStats
	Fingerprint string
	StartedAt   time.Time
	FinishedAt  time.Time
}

type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	open     render.Opener
	checksum *checksum.Generator

	mu   sync.Mutex
	last *Run
}

func NewOrchestrator(cfg *config.Config, logger *observability.Logger, open render.Opener) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		open:     open,
		checksum: checksum.NewGenerator(),
	}
}

// Scrape открывает сессию рендеринга, обходит страницы и запоминает результат.
// При ошибке навигации прошлый результат остаётся нетронутым.
func (o *Orchestrator) Scrape(ctx context.Context, target Target) (*Run, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
	logger := o.logger.With("run_id", run.ID)

	session, err := o.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open render session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close render session", "error", err.Error())
		}
	}()

	s, err := scraper.NewScraper(session, target.Selectors, scraper.Options{
		WaitTimeout:       o.cfg.GetWaitTimeout(),
		SettleDelay:       o.cfg.GetSettleDelay(),
		StructuralRetries: o.cfg.Pagination.StructuralRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	result, err := s.Scrape(ctx, target.BaseURL, target.Pages)
	if err != nil {
		return nil, err
	}

	run.Dataset = result.Dataset
	run.Stats = result.Stats
	run.Fingerprint = o.checksum.GenerateDatasetHash(result.Dataset)
	run.FinishedAt = time.Now().UTC()

	o.mu.Lock()
	o.last = run
	o.mu.Unlock()

	logger.Info("Scrape completed",
		"records", len(run.Dataset),
		"empty_pages", run.Stats.EmptyPages,
		"fingerprint", run.Fingerprint,
		"duration", run.FinishedAt.Sub(run.StartedAt).String(),
	)

	return run, nil
}

// Last возвращает последний успешный скрейп или nil
func (o *Orchestrator) Last() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Save пишет последний датасет в приёмник
func (o *Orchestrator) Save(ctx context.Context, sink storage.Sink) error {
	run := o.Last()
	if run == nil {
		return ErrNoDataset
	}

	if err := sink.Save(ctx, run.Dataset); err != nil {
		o.logger.Error("Save failed",
			"run_id", run.ID,
			"sink", sink.Name(),
			"error", err.Error(),
		)
		return fmt.Errorf("save to %s: %w", sink.Name(), err)
	}
	return nil
}
