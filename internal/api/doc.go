// Package api hosts the HTTP server, middleware, and handlers for VIN lookups.
// Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /api/vehicle/identify?vin=... resolves a VIN to its documentation directory.
//   - GET /api/vehicle/{dtc,labor,repair}?baseUrl=... lists sub-categories under a
//     resolved directory.
package api
