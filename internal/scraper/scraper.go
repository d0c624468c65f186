package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"product-scraper/internal/observability"
	"product-scraper/internal/render"
)

const (
	DefaultWaitTimeout = 10 * time.Second
	DefaultSettleDelay = 2 * time.Second
)

type Options struct {
	// WaitTimeout - сколько ждать появления контейнеров на странице
	WaitTimeout time.Duration
	// SettleDelay - пауза между загрузками соседних страниц
	SettleDelay time.Duration
	// StructuralRetries - сколько раз перезагрузить страницу без контейнеров,
	// прежде чем признать её пустой
	StructuralRetries int
}

func (o Options) withDefaults() Options {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.StructuralRetries < 0 {
		o.StructuralRetries = 0
	}
	return o
}

type PaginationStats struct {
	TotalPages   int
	EmptyPages   int
	TotalRecords int
	Retries      int
}

type Result struct {
	Dataset Dataset
	Pages   []PageResult
	Stats   PaginationStats
}

// Scraper обходит страницы листинга по одной в одной сессии рендеринга
type Scraper struct {
	session   render.Session
	selectors SelectorSet
	opts      Options
	logger    *observability.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewScraper(session render.Session, selectors SelectorSet, opts Options, logger *observability.Logger) (*Scraper, error) {
	if session == nil {
		return nil, fmt.Errorf("render session is nil")
	}
	if err := selectors.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return &Scraper{
		session:   session,
		selectors: selectors,
		opts:      opts.withDefaults(),
		logger:    logger,
		sleep:     sleepContext,
	}, nil
}

// Scrape загружает страницы 1..pageCount и собирает записи в порядке страниц.
// Пустая страница не прерывает обход; недоступная страница прерывает его,
// и тогда частичный результат не возвращается.
func (s *Scraper) Scrape(ctx context.Context, baseURL string, pageCount int) (*Result, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: base URL is empty", ErrInvalidTarget)
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("%w: page count must be >= 1, got %d", ErrInvalidTarget, pageCount)
	}

	s.logger.Info("Starting pagination",
		"base_url", baseURL,
		"pages", pageCount,
		"container_selector", s.selectors.Container,
		"wait_timeout", s.opts.WaitTimeout.String(),
	)

	result := &Result{Dataset: Dataset{}}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Scrape canceled", "page", pageNum, "error", err.Error())
			return nil, err
		}

		if pageNum > 1 && s.opts.SettleDelay > 0 {
			if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
				s.logger.Warn("Scrape canceled during settle delay", "page", pageNum, "error", err.Error())
				return nil, err
			}
		}

		pageURL := PageURL(baseURL, pageNum)
		s.logger.Info("Processing page", "page", pageNum, "url", pageURL)

		page, err := s.scrapePage(ctx, pageNum, pageURL, &result.Stats)
		if err != nil {
			s.logger.Error("Scrape aborted",
				"page", pageNum,
				"url", pageURL,
				"error", err.Error(),
			)
			return nil, err
		}

		result.Pages = append(result.Pages, page)
		result.Stats.TotalPages++

		if page.Failed() {
			result.Stats.EmptyPages++
			s.logger.Warn("Error locating product containers",
				"page", pageNum,
				"url", pageURL,
				"error", page.Failure.Error(),
			)
			continue
		}

		result.Dataset = append(result.Dataset, page.Records...)
		result.Stats.TotalRecords += len(page.Records)

		s.logger.Info("Page extracted",
			"page", pageNum,
			"records", len(page.Records),
			"total_records", result.Stats.TotalRecords,
		)
	}

	s.logger.Info("Pagination completed",
		"total_pages", result.Stats.TotalPages,
		"empty_pages", result.Stats.EmptyPages,
		"total_records", result.Stats.TotalRecords,
	)

	return result, nil
}

// scrapePage загружает страницу и извлекает записи, при необходимости
// повторяя загрузку страницы без контейнеров
func (s *Scraper) scrapePage(ctx context.Context, pageNum int, pageURL string, stats *PaginationStats) (PageResult, error) {
	var page PageResult

	for attempt := 0; attempt <= s.opts.StructuralRetries; attempt++ {
		if attempt > 0 {
			stats.Retries++
			s.logger.Info("Retrying page without containers",
				"page", pageNum,
				"attempt", attempt,
			)
		}

		if err := s.session.Navigate(ctx, pageURL); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return PageResult{}, ctxErr
			}
			return PageResult{}, &NavigationError{Page: pageNum, URL: pageURL, Err: err}
		}

		var err error
		page, err = ExtractPage(ctx, s.session, s.selectors, s.opts.WaitTimeout)
		if err != nil {
			return PageResult{}, err
		}
		if !page.Failed() {
			break
		}
	}

	page.Page = pageNum
	page.URL = pageURL
	return page, nil
}

// PageURL добавляет номер страницы к URL поиска: base&page=n,
// либо base?page=n, если в URL ещё нет query
func PageURL(baseURL string, pageNum int) string {
	sep := "&"
	if !strings.Contains(baseURL, "?") {
		sep = "?"
	} else if strings.HasSuffix(baseURL, "?") || strings.HasSuffix(baseURL, "&") {
		sep = ""
	}
	return baseURL + sep + "page=" + strconv.Itoa(pageNum)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
