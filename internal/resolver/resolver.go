package resolver

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
)

// DefaultMakeAliases rewrites decoder make names to the names used by the documentation site.
// Keys are lower case.
var DefaultMakeAliases = map[string]string{
	"chevrolet": "Chevy",
}

// Config controls the resolution walk.
type Config struct {
	// RootURL is the listing that holds one directory per make.
	RootURL string
	// MakeAliases maps a lower-cased decoder make to the site's folder name. Nil uses DefaultMakeAliases.
	MakeAliases map[string]string
}

// Resolver walks make, year and model listings for a decoded VIN.
type Resolver struct {
	rootURL string
	aliases map[string]string
	decoder Decoder
	fetcher DirectoryFetcher
	matcher Matcher
	cache   Cache
	logger  *zap.Logger
}

// New constructs a Resolver. The cache is owned by the caller and may be shared.
func New(
	cfg Config,
	decoder Decoder,
	fetcher DirectoryFetcher,
	matcher Matcher,
	cache Cache,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	aliases := make(map[string]string)
	src := cfg.MakeAliases
	if src == nil {
		src = DefaultMakeAliases
	}
	for k, v := range src {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Resolver{
		rootURL: cfg.RootURL,
		aliases: aliases,
		decoder: decoder,
		fetcher: fetcher,
		matcher: matcher,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve returns the decoded vehicle and its model directory URL.
// A cached VIN is answered without any network call.
func (r *Resolver) Resolve(ctx context.Context, vin string) (Resolution, error) {
	logger := r.logger.With(zap.String("vin", vin))

	if entry, ok := r.cache.Get(vin); ok {
		metrics.ObserveResolution("cache_hit")
		logger.Debug("resolution served from cache", zap.String("url", entry.URL))
		return Resolution{Vehicle: entry.Info, BaseURL: entry.URL, Matches: slices.Clone(entry.Matches), Cached: true}, nil
	}

	info, err := r.decode(ctx, vin)
	if err != nil {
		r.fail(logger, StageDecoding, err)
		return Resolution{}, err
	}
	logger.Info("vin decoded", zap.String("year", info.Year), zap.String("make", info.Make), zap.String("model", info.Model))

	makeMatch, err := r.hop(ctx, logger, StageMake, r.rootURL, r.aliasMake(info.Make), info.Make)
	if err != nil {
		r.fail(logger, StageMake, err)
		return Resolution{}, err
	}
	yearMatch, err := r.hop(ctx, logger, StageYear, makeMatch.URL, info.Year, info.Year)
	if err != nil {
		r.fail(logger, StageYear, err)
		return Resolution{}, err
	}
	modelMatch, err := r.hop(ctx, logger, StageModel, yearMatch.URL, info.Model, info.Model)
	if err != nil {
		r.fail(logger, StageModel, err)
		return Resolution{}, err
	}

	matches := []StageMatch{makeMatch, yearMatch, modelMatch}
	// The cache keeps its own copy; callers may modify the returned slice.
	r.cache.Set(vin, Entry{Info: info, URL: modelMatch.URL, Matches: slices.Clone(matches)})
	metrics.ObserveResolution("resolved")
	logger.Info("vehicle resolved", zap.String("url", modelMatch.URL))

	return Resolution{Vehicle: info, BaseURL: modelMatch.URL, Matches: matches}, nil
}

func (r *Resolver) decode(ctx context.Context, vin string) (VehicleInfo, error) {
	info, err := r.decoder.DecodeVIN(ctx, vin)
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) && rerr.Kind == KindInvalidInput {
			return VehicleInfo{}, err
		}
		return VehicleInfo{}, NewDecodeError(err)
	}
	if !info.Complete() {
		return VehicleInfo{}, NewDecodeError(errors.New("incomplete vehicle data"))
	}
	return info, nil
}

// hop fetches listingURL and matches target against the link names. reported is the value
// named in the not-found message, which differs from target when an alias was applied.
func (r *Resolver) hop(
	ctx context.Context,
	logger *zap.Logger,
	stage Stage,
	listingURL string,
	target string,
	reported string,
) (StageMatch, error) {
	links, err := r.fetcher.FetchDirectory(ctx, listingURL)
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			err = NewFetchError(listingURL, err)
		}
		return StageMatch{}, err
	}

	names := make([]string, len(links))
	for i, link := range links {
		names[i] = link.Name
	}
	m := r.matcher.FindBestMatch(target, names)
	if m == nil || m.Index < 0 || m.Index >= len(links) {
		return StageMatch{}, NewResolutionError(stage, reported)
	}

	link := links[m.Index]
	metrics.ObserveMatch(string(stage), m.Score)
	logger.Info("stage matched",
		zap.String("stage", string(stage)),
		zap.String("target", target),
		zap.String("candidate", link.Name),
		zap.Float64("score", m.Score),
		zap.String("url", link.URL),
	)
	return StageMatch{
		Stage:         stage,
		Target:        target,
		Candidate:     link.Name,
		URL:           link.URL,
		Score:         m.Score,
		LowConfidence: m.LowConfidence,
	}, nil
}

func (r *Resolver) aliasMake(name string) string {
	if alias, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return alias
	}
	return name
}

func (r *Resolver) fail(logger *zap.Logger, stage Stage, err error) {
	outcome := "fetch_failed"
	switch KindOf(err) {
	case KindInvalidInput:
		outcome = "decode_failed"
	case KindNotFound:
		outcome = "not_found"
	}
	metrics.ObserveResolution(outcome)

	fields := []zap.Field{zap.String("stage", string(stage)), zap.Error(err)}
	var rerr *Error
	if errors.As(err, &rerr) && rerr.URL != "" {
		fields = append(fields, zap.String("url", rerr.URL))
	}
	logger.Warn("resolution failed", fields...)
}
