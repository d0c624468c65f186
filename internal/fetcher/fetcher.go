package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"product-scraper/internal/config"
	"product-scraper/internal/observability"
)

// ErrDisallowed - robots.txt запрещает загрузку URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

type Fetcher struct {
	client      *resty.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.GetTotalTimeout()).
		SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
		}).
		SetHeader("User-Agent", cfg.HTTP.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	if cfg.HTTP.AcceptLanguage != "" {
		client.SetHeader("Accept-Language", cfg.HTTP.AcceptLanguage)
	}

	return &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		robotsCache: NewRobotsCache(cfg.GetRobotsCacheTTL(), cfg.HTTP.UserAgent),
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM),
	}
}

// Fetch загружает страницу с учётом robots.txt, лимита запросов и повторов.
// Ответы 4xx возвращаются как есть: страница доступна, просто пустая.
// Ошибка возвращается, только если сервер так и не ответил.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL: unsupported scheme %q", parsedURL.Scheme)
	}

	host := parsedURL.Host

	if f.cfg.HTTP.RespectRobots {
		allowed, err := f.robotsCache.IsAllowed(ctx, f.client, parsedURL)
		if err != nil {
			return nil, fmt.Errorf("robots.txt check failed: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, urlStr)
		}
	}

	var resp *FetchResponse
	attempt := 0

	operation := func() error {
		attempt++

		if err := f.rateLimiter.Wait(ctx, host); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit error: %w", err))
		}

		r, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			f.logger.Warn("Fetch attempt failed",
				"url", urlStr,
				"attempt", attempt,
				"error", err.Error(),
			)
			return err
		}

		// Retry on 5xx or 429
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			f.logger.Warn("Server error, will retry",
				"url", urlStr,
				"attempt", attempt,
				"status", r.StatusCode,
			)
			return fmt.Errorf("server error: %d", r.StatusCode)
		}

		resp = r
		return nil
	}

	if err := backoff.Retry(operation, f.newBackoff(ctx)); err != nil {
		return nil, fmt.Errorf("fetch failed after %d attempts: %w", attempt, err)
	}

	f.logger.Debug("Fetched page",
		"url", resp.URL,
		"status", resp.StatusCode,
		"content_type", resp.Headers.Get("Content-Type"),
		"body_size", len(resp.Body),
	)

	return resp, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	res, err := f.client.R().
		SetContext(ctx).
		Get(urlStr)
	if err != nil {
		return nil, err
	}

	finalURL := urlStr
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}

	return &FetchResponse{
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
		URL:        finalURL,
		Headers:    res.Header(),
	}, nil
}

// newBackoff - экспоненциальная задержка min*2^n с разбросом ±jitter_pct%, не более max_retries повторов
func (f *Fetcher) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.GetBackoffMin()
	b.MaxInterval = f.cfg.GetBackoffMax()
	b.Multiplier = 2
	b.RandomizationFactor = float64(f.cfg.Backoff.JitterPct) / 100
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.HTTP.MaxRetries)), ctx)
}

// delays возвращает последовательность задержек между повторами без учёта контекста
func (f *Fetcher) delays() []time.Duration {
	b := f.newBackoff(context.Background())
	var delays []time.Duration
	for {
		d := b.NextBackOff()
		if d == backoff.Stop {
			return delays
		}
		delays = append(delays, d)
	}
}
