package http

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultHostRPS caps requests per second to any one host across all
// concurrent ingestion runs sharing a Fetcher.
const DefaultHostRPS = 5

// HostLimiter spaces request starts per host using token buckets with a
// burst of 1. Requests to different hosts do not wait on each other.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimiter creates a HostLimiter allowing rps requests per second to
// each host.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
