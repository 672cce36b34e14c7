package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/sakhi/internal/common"
	"golang.org/x/time/rate"
)

// Rate limit defaults, in requests per minute and bucket size.
const (
	DefaultRateLimit = 60
	DefaultRateBurst = 5
)

// rateLimiter keeps one token bucket per endpoint path so a slow QR upload
// loop cannot starve the text channels.
type rateLimiter struct {
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	return &rateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
	}
}

func (rl *rateLimiter) bucket(path string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[path]
	if !ok {
		b = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets[path] = b
	}
	return b
}

// wait blocks until the endpoint's bucket has a token. It fails with
// common.ErrRateLimit when ctx ends first or its deadline is too close.
func (rl *rateLimiter) wait(ctx context.Context, path string) error {
	if err := rl.bucket(path).Wait(ctx); err != nil {
		return fmt.Errorf("%w on %s: %w", common.ErrRateLimit, path, err)
	}
	return nil
}

// allow takes a token from the endpoint's bucket without blocking.
func (rl *rateLimiter) allow(path string) bool {
	return rl.bucket(path).Allow()
}
