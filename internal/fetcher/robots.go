package fetcher

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

type RobotsCache struct {
	cache     map[string]*robotsEntry
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
}

type robotsEntry struct {
	group     *robotstxt.Group
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, userAgent string) *RobotsCache {
	return &RobotsCache{
		cache:     make(map[string]*robotsEntry),
		ttl:       ttl,
		userAgent: userAgent,
	}
}

// IsAllowed проверяет URL по robots.txt хоста. Если robots.txt недоступен, загрузка разрешена.
func (rc *RobotsCache) IsAllowed(ctx context.Context, client *resty.Client, target *url.URL) (bool, error) {
	host := target.Scheme + "://" + target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return cached.group.Test(requestPath(target)), nil
	}

	group := rc.fetch(ctx, client, host)

	rc.mu.Lock()
	rc.cache[host] = &robotsEntry{
		group:     group,
		expiresAt: time.Now().Add(rc.ttl),
	}
	rc.mu.Unlock()

	return group.Test(requestPath(target)), nil
}

func (rc *RobotsCache) fetch(ctx context.Context, client *resty.Client, host string) *robotstxt.Group {
	res, err := client.R().
		SetContext(ctx).
		Get(host + "/robots.txt")
	if err != nil {
		// Network error: assume allowed
		return allowAll(rc.userAgent)
	}

	data, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		return allowAll(rc.userAgent)
	}

	return data.FindGroup(rc.userAgent)
}

func allowAll(userAgent string) *robotstxt.Group {
	data, _ := robotstxt.FromStatusAndBytes(404, nil)
	return data.FindGroup(userAgent)
}

func requestPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}
