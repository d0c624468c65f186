package scraper

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSelectors = errors.New("invalid selector set")
	ErrInvalidTarget    = errors.New("invalid scrape target")

	// ErrNoContainers - структурный сбой страницы: контейнеры не найдены
	ErrNoContainers = errors.New("no containers located")
)

// NavigationError - страница недоступна, скрейп прерывается
type NavigationError struct {
	Page int
	URL  string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to page %d (%s) failed: %v", e.Page, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}
