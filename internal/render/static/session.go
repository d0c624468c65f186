package static

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"product-scraper/internal/fetcher"
	"product-scraper/internal/normalize"
	"product-scraper/internal/observability"
	"product-scraper/internal/render"
)

// PageFetcher загружает HTML страницы
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

// Session рендерит страницы без браузера: HTML скачивается и разбирается goquery.
// Подходит для сайтов, которые отдают листинг в исходном HTML.
type Session struct {
	fetcher    PageFetcher
	normalizer *normalize.Normalizer
	logger     *observability.Logger

	doc *goquery.Document
}

func NewSession(f PageFetcher, n *normalize.Normalizer, logger *observability.Logger) *Session {
	return &Session{
		fetcher:    f,
		normalizer: n,
		logger:     logger,
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.doc = nil

	resp, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	s.doc = doc

	s.logger.Debug("Document loaded",
		"url", resp.URL,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
	)
	return nil
}

// WaitForSelector не ждёт: статический документ уже окончательный,
// поэтому пустая выборка сразу считается таймаутом
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) ([]render.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid selector %q: %v", render.ErrWaitTimeout, selector, err)
	}

	found := s.doc.FindMatcher(matcher)
	if found.Length() == 0 {
		return nil, render.ErrWaitTimeout
	}

	elements := make([]render.Element, 0, found.Length())
	found.Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, &element{sel: sel, normalizer: s.normalizer})
	})
	return elements, nil
}

func (s *Session) Close() error {
	s.doc = nil
	return nil
}

type element struct {
	sel        *goquery.Selection
	normalizer *normalize.Normalizer
}

func (e *element) Find(selector string) (render.Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	found := e.sel.FindMatcher(matcher).First()
	if found.Length() == 0 {
		return nil, render.ErrNotFound
	}
	return &element{sel: found, normalizer: e.normalizer}, nil
}

func (e *element) Text() (string, error) {
	return e.normalizer.Text(e.sel), nil
}

func (e *element) Attribute(name string) (string, bool, error) {
	value, ok := e.sel.Attr(name)
	return value, ok, nil
}
