// Package collyfetcher implements resolver.DirectoryFetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// DefaultUserAgent identifies as a desktop browser; some listing sites reject crawler agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config controls collector behavior. KnownHosts bounds the site metric label; listings on any
// other host are reported as metrics.OtherSite.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	KnownHosts    []string
}

// Waiter delays a request to honor per-host politeness.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Fetcher implements resolver.DirectoryFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	limiter       Waiter
	sites         *metrics.SiteLabeler
	logger        *zap.Logger
}

var _ resolver.DirectoryFetcher = (*Fetcher)(nil)

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// fetchResult is filled by collector callbacks.
type fetchResult struct {
	status int
	body   []byte
	err    error
}

// New builds a Fetcher. limiter may be nil.
func New(cfg Config, limiter Waiter, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Clones share the backend, so transport and timeout are set once here.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	c.WithTransport(otelhttp.NewTransport(newHTTPTransport()))
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		limiter:       limiter,
		sites:         metrics.NewSiteLabeler(cfg.KnownHosts...),
		logger:        logger,
	}
}

// FetchDirectory GETs pageURL and returns its anchors in document order.
func (f *Fetcher) FetchDirectory(ctx context.Context, pageURL string) ([]resolver.ScrapedLink, error) {
	site := f.sites.Label(pageURL)
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, pageURL); err != nil {
			metrics.ObserveListingFetch(site, "error", 0)
			return nil, resolver.NewFetchError(pageURL, err)
		}
	}

	start := time.Now()
	result := &fetchResult{}
	collector := f.buildCollector(result)
	if err := f.runCollector(ctx, collector, pageURL, result); err != nil {
		// After cancellation the collector goroutine may still own result.
		label := "canceled"
		if ctx.Err() == nil {
			label = statusLabel(result.status)
		}
		metrics.ObserveListingFetch(site, label, 0)
		f.logger.Warn("listing fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, resolver.NewFetchError(pageURL, err)
	}
	metrics.ObserveListingFetch(site, statusLabel(result.status), len(result.body))

	links, err := ParseListing(pageURL, result.body)
	if err != nil {
		return nil, resolver.NewFetchError(pageURL, err)
	}
	f.logger.Debug("listing fetched",
		zap.String("url", pageURL),
		zap.Int("status", result.status),
		zap.Int("links", len(links)),
		zap.Duration("duration", time.Since(start)),
	)
	return links, nil
}

func (f *Fetcher) buildCollector(result *fetchResult) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	f.configureCollectorHooks(collector, result)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *fetchResult) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	})

	hooks.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.status = r.StatusCode
		}
		result.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, result *fetchResult) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if result.err != nil {
			return fmt.Errorf("colly response failed: %w", result.err)
		}
		if result.status < 200 || result.status > 299 {
			return fmt.Errorf("unexpected status %d", result.status)
		}
		return nil
	}
}

func statusLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
