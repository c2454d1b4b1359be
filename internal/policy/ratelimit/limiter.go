// Package ratelimit spaces out requests per upstream host with token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
)

// DefaultMaxHosts caps how many per-host buckets are kept at once.
const DefaultMaxHosts = 1024

// Limiter manages per-host rate limits for outbound listing and decoder calls.
type Limiter struct {
	mu           sync.Mutex
	limiters     *lru.Cache[string, *rate.Limiter]
	defaultRate  rate.Limit
	defaultBurst int
	sites        *metrics.SiteLabeler
}

// Config holds rate limiter configuration. A non-positive RPS disables limiting.
// KnownHosts bounds the metric label; other hosts are reported as metrics.OtherSite.
type Config struct {
	DefaultRPS   float64
	DefaultBurst int
	MaxHosts     int
	KnownHosts   []string
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.DefaultRPS)
	if cfg.DefaultRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	maxHosts := cfg.MaxHosts
	if maxHosts <= 0 {
		maxHosts = DefaultMaxHosts
	}
	// lru.New only fails for a non-positive size.
	limiters, _ := lru.New[string, *rate.Limiter](maxHosts)
	return &Limiter{
		limiters:     limiters,
		defaultRate:  r,
		defaultBurst: burst,
		sites:        metrics.NewSiteLabeler(cfg.KnownHosts...),
	}
}

// Wait blocks until a token is available for rawURL's host, respecting the context.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l.defaultRate == rate.Inf {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		return nil
	}

	limiter := l.limiterFor(hostOf(rawURL))

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	// Immediate grants are not interesting as delays.
	if d := time.Since(start); d > time.Millisecond {
		metrics.ObserveRateLimitDelay(l.sites.Label(rawURL), d)
	}
	return nil
}

// Hosts returns the number of hosts with a bucket.
func (l *Limiter) Hosts() int {
	return l.limiters.Len()
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters.Get(host)
	if !ok {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters.Add(host, limiter)
	}
	return limiter
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
