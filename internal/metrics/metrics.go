// Package metrics exposes Prometheus collectors for the resolver service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listingFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_listing_fetches_total",
			Help: "Directory listing fetches, labeled by site and HTTP status (or error).",
		},
		[]string{"site", "status"},
	)

	listingBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_listing_bytes_total",
			Help: "Bytes of directory listing HTML fetched, labeled by site.",
		},
		[]string{"site"},
	)

	decodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_vin_decodes_total",
			Help: "VIN decoder calls, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_resolutions_total",
			Help: "VIN resolutions, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	matchScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_match_score",
			Help:    "Similarity score of the selected candidate, labeled by stage.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"stage"},
	)

	cacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_cache_events_total",
			Help: "Resolution cache events (hit, miss, evict).",
		},
		[]string{"event"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_rate_limit_delays_seconds",
			Help:    "Histogram of upstream rate limit wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)
)

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// OtherSite is the site label for hosts outside a SiteLabeler's set.
const OtherSite = "other"

// SiteLabeler keeps site label cardinality bounded when URLs come from callers.
type SiteLabeler struct {
	known map[string]struct{}
}

// NewSiteLabeler accepts bare hosts or URLs. With no hosts every site is passed through.
func NewSiteLabeler(hosts ...string) *SiteLabeler {
	known := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if site := SanitizeSite(h); site != "unknown" {
			known[site] = struct{}{}
		}
	}
	return &SiteLabeler{known: known}
}

// Label returns the sanitized host of rawURL, or OtherSite when it is not in the set.
func (l *SiteLabeler) Label(rawURL string) string {
	site := SanitizeSite(rawURL)
	if l == nil || len(l.known) == 0 {
		return site
	}
	if _, ok := l.known[site]; ok {
		return site
	}
	return OtherSite
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListingFetch records one listing fetch.
func ObserveListingFetch(site, status string, bytesFetched int) {
	listingFetchesTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		listingBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveDecode records a decoder call outcome.
func ObserveDecode(outcome string) {
	decodesTotal.WithLabelValues(outcome).Inc()
}

// ObserveResolution records how a resolution ended.
func ObserveResolution(outcome string) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMatch records the score chosen at a stage.
func ObserveMatch(stage string, score float64) {
	matchScore.WithLabelValues(stage).Observe(score)
}

// ObserveCache records a cache event.
func ObserveCache(event string) {
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
