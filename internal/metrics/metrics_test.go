package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Charm.li/Chevy/", "charm.li"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSiteLabeler(t *testing.T) {
	l := NewSiteLabeler("https://charm.li/", "Mirror.example")

	testCases := []struct {
		input    string
		expected string
	}{
		{"https://charm.li/Chevy/", "charm.li"},
		{"http://mirror.example/x", "mirror.example"},
		{"http://attacker-1234.example/", OtherSite},
		{"http://%", OtherSite},
	}
	for _, tc := range testCases {
		if got := l.Label(tc.input); got != tc.expected {
			t.Errorf("Label(%q) = %q; want %q", tc.input, got, tc.expected)
		}
	}

	var unset *SiteLabeler
	if got := unset.Label("https://anything.example/"); got != "anything.example" {
		t.Errorf("nil labeler Label = %q; want passthrough", got)
	}
	if got := NewSiteLabeler().Label("https://anything.example/"); got != "anything.example" {
		t.Errorf("empty labeler Label = %q; want passthrough", got)
	}
}

func TestObservers(t *testing.T) {
	fetches := testutil.ToFloat64(listingFetchesTotal.WithLabelValues("metrics.test", "200"))
	bytes := testutil.ToFloat64(listingBytesTotal.WithLabelValues("metrics.test"))
	resolved := testutil.ToFloat64(resolutionsTotal.WithLabelValues("metrics_test"))
	hits := testutil.ToFloat64(cacheEventsTotal.WithLabelValues("metrics_test"))
	decodes := testutil.ToFloat64(decodesTotal.WithLabelValues("metrics_test"))

	ObserveListingFetch("metrics.test", "200", 512)
	ObserveListingFetch("metrics.test", "200", 0)
	ObserveResolution("metrics_test")
	ObserveCache("metrics_test")
	ObserveDecode("metrics_test")
	ObserveMatch("metrics_test", 0.42)
	ObserveRateLimitDelay("metrics.test", 150*time.Millisecond)

	if got := testutil.ToFloat64(listingFetchesTotal.WithLabelValues("metrics.test", "200")) - fetches; got != 2 {
		t.Errorf("listing fetches delta = %f; want 2", got)
	}
	if got := testutil.ToFloat64(listingBytesTotal.WithLabelValues("metrics.test")) - bytes; got != 512 {
		t.Errorf("listing bytes delta = %f; want 512", got)
	}
	if got := testutil.ToFloat64(resolutionsTotal.WithLabelValues("metrics_test")) - resolved; got != 1 {
		t.Errorf("resolutions delta = %f; want 1", got)
	}
	if got := testutil.ToFloat64(cacheEventsTotal.WithLabelValues("metrics_test")) - hits; got != 1 {
		t.Errorf("cache events delta = %f; want 1", got)
	}
	if got := testutil.ToFloat64(decodesTotal.WithLabelValues("metrics_test")) - decodes; got != 1 {
		t.Errorf("decodes delta = %f; want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveResolution("handler_test")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "resolver_resolutions_total") {
		t.Error("expected resolver_resolutions_total in exposition")
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://charm.li/Chevy/", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
