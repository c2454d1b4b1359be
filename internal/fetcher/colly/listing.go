package collyfetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

const parentDirectoryText = "Parent Directory"

// ParseListing extracts directory links from an HTML listing served at pageURL.
// Anchors without an href or label, and the parent directory link, are skipped.
func ParseListing(pageURL string, body []byte) ([]resolver.ScrapedLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing HTML: %w", err)
	}

	var links []resolver.ScrapedLink
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSuffix(strings.TrimSpace(sel.Text()), "/")
		if href == "" || text == "" || strings.Contains(text, parentDirectoryText) {
			return
		}

		abs := href
		if !strings.HasPrefix(href, "http") {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			abs = base.ResolveReference(ref).String()
		}
		links = append(links, resolver.ScrapedLink{
			Text: text,
			URL:  abs,
			Name: nameFromURL(abs),
		})
	})
	return links, nil
}

// nameFromURL returns the decoded last path segment, ignoring one trailing slash.
func nameFromURL(abs string) string {
	clean := strings.TrimSuffix(abs, "/")
	segment := clean[strings.LastIndex(clean, "/")+1:]
	name, err := url.PathUnescape(segment)
	if err != nil {
		return segment
	}
	return name
}
