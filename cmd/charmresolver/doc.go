// Package main hosts the charmresolver entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, and the /api/vehicle endpoints. identify resolves a VIN;
//     dtc, labor and repair list the categories below a resolved directory.
//   - Resolution: internal/resolver decodes the VIN through the NHTSA vPIC client, then walks the make, year and model
//     listings of the documentation site, picking the best bigram match at each hop. Results land in a bounded,
//     expiring LRU cache so repeat lookups make no upstream calls.
//   - Fetch pipeline: listings are fetched with a Colly collector (browser User-Agent, optional robots.txt, optional
//     per-host rate limit) and parsed with goquery.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler; otelhttp wraps the server and outbound
//     clients, reporting to an OpenTelemetry tracer provider when telemetry is enabled.
//
// Operational notes:
//   - Each lookup is a strict sequence of at most four upstream calls; failures at any hop abort the lookup and
//     nothing is cached.
//   - The process reacts to SIGTERM by draining in-flight requests before exiting.
//
// Quick checklist:
//   - Configure env vars: RESOLVER_SERVER_PORT, RESOLVER_DIRECTORY_ROOT_URL, RESOLVER_DECODER_BASE_URL,
//     RESOLVER_CACHE_CAPACITY, RESOLVER_CACHE_TTL, RESOLVER_MATCH_LOW_CONFIDENCE_THRESHOLD.
//   - Run locally: go run ./cmd/charmresolver serve --config config.yaml
//   - One-off lookup: go run ./cmd/charmresolver identify 2G1FB1E39F9100001
package main
