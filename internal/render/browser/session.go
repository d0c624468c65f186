package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"product-scraper/internal/config"
	"product-scraper/internal/observability"
	"product-scraper/internal/render"
)

// Session - одна вкладка headless Chrome на весь скрейп
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      *config.Config
	logger   *observability.Logger
}

// Open запускает браузер и открывает вкладку. Close обязателен.
func Open(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Rod.Headless).
		NoSandbox(cfg.Rod.NoSandbox)

	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.Info("Browser launched", "control_url", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var page *rod.Page
	if cfg.Rod.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Session{
		launcher: l,
		browser:  browser,
		page:     page,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.cfg.GetRodPageTimeout())
	if err := p.Navigate(url); err != nil {
		return err
	}

	// Ждём load, но не считаем медленную загрузку ошибкой навигации
	if err := s.page.Context(ctx).Timeout(s.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("WaitLoad did not complete, proceeding with current DOM",
			"url", url,
			"error", err.Error(),
		)
	}

	if delay := s.cfg.GetRodLazyLoadDelay(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) ([]render.Element, error) {
	// Element повторяет поиск, пока элемент не появится или не истечёт timeout
	if _, err := s.page.Context(ctx).Timeout(timeout).Element(selector); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, render.ErrWaitTimeout
		}
		return nil, fmt.Errorf("%w: %v", render.ErrWaitTimeout, err)
	}

	found, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", selector, err)
	}

	elements := make([]render.Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &element{el: el})
	}
	return elements, nil
}

// Close закрывает вкладку и браузер и удаляет временный профиль
func (s *Session) Close() error {
	var errs []error

	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	s.launcher.Kill()
	s.launcher.Cleanup()

	s.logger.Info("Browser closed")
	return errors.Join(errs...)
}

type element struct {
	el *rod.Element
}

func (e *element) Find(selector string) (render.Element, error) {
	// Elements не ждёт появления узлов, в отличие от Element
	found, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	if found.Empty() {
		return nil, render.ErrNotFound
	}
	return &element{el: found.First()}, nil
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Attribute(name string) (string, bool, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}
