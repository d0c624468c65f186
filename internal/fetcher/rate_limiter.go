package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает число запросов в минуту отдельно для каждого хоста
type RateLimiter struct {
	burst    int
	limit    rate.Limit
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func NewRateLimiter(burst, rpm int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		burst:    burst,
		limit:    rate.Every(time.Minute / time.Duration(rpm)),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	return rl.forHost(host).Wait(ctx)
}

func (rl *RateLimiter) forHost(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[host] = limiter
	}
	return limiter
}
