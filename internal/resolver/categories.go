package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Section is a browsable documentation area below a model directory.
type Section string

// Sections exposed by the documentation site.
const (
	SectionDTC    Section = "dtc"
	SectionLabor  Section = "labor"
	SectionRepair Section = "repair"
)

var sectionPaths = map[Section][]string{
	SectionDTC:    {"Repair and Diagnosis", "A L L  Diagnostic Trouble Codes ( DTC )"},
	SectionLabor:  {"Parts and Labor"},
	SectionRepair: {"Repair and Diagnosis"},
}

// Link labels that are navigation rather than content.
var excludedCategoryText = []string{"Parent Directory", "Home"}

// ParseSection converts a user supplied name into a Section.
func ParseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := sectionPaths[s]; !ok {
		return "", fmt.Errorf("unknown section %q", name)
	}
	return s, nil
}

// Label is the human name used in messages.
func (s Section) Label() string {
	if s == SectionDTC {
		return "DTC"
	}
	return string(s)
}

// SectionURL joins baseURL and the section's path segments. baseURL ends up with exactly one
// trailing slash and every segment is percent-encoded on its own.
func SectionURL(baseURL string, section Section) (string, error) {
	segments, ok := sectionPaths[section]
	if !ok {
		return "", fmt.Errorf("unknown section %q", section)
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", &Error{Kind: KindInvalidInput, Message: "baseUrl is required"}
	}
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(encoded, "/") + "/", nil
}

// URLPolicy decides whether a caller supplied URL may be fetched.
type URLPolicy interface {
	AllowFetch(rawURL string) bool
}

// CategoryLister lists the sub-categories of a documentation section.
type CategoryLister struct {
	fetcher DirectoryFetcher
	policy  URLPolicy
	logger  *zap.Logger
}

// NewCategoryLister builds a CategoryLister. policy may be nil to allow any base URL.
func NewCategoryLister(fetcher DirectoryFetcher, policy URLPolicy, logger *zap.Logger) *CategoryLister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryLister{fetcher: fetcher, policy: policy, logger: logger}
}

// List fetches the section listing under baseURL and drops navigation links.
func (l *CategoryLister) List(ctx context.Context, baseURL string, section Section) ([]Category, error) {
	sectionURL, err := SectionURL(baseURL, section)
	if err != nil {
		return nil, err
	}
	if l.policy != nil && !l.policy.AllowFetch(sectionURL) {
		return nil, &Error{Kind: KindInvalidInput, Message: "baseUrl host is not allowed", URL: sectionURL}
	}
	l.logger.Info("listing section", zap.String("section", string(section)), zap.String("url", sectionURL))

	links, err := l.fetcher.FetchDirectory(ctx, sectionURL)
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			err = NewFetchError(sectionURL, err)
		}
		return nil, err
	}

	categories := make([]Category, 0, len(links))
	for _, link := range links {
		if isNavigation(link.Text) {
			continue
		}
		categories = append(categories, Category{Category: link.Text, URL: link.URL})
	}
	return categories, nil
}

func isNavigation(text string) bool {
	for _, ex := range excludedCategoryText {
		if strings.Contains(text, ex) {
			return true
		}
	}
	return false
}
