package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/id/uuid"
	"github.com/JakeFAU/charm-vin-resolver/internal/metrics"
	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

// DefaultRequestTimeout bounds a single inbound request, covering decode plus three listing hops.
const DefaultRequestTimeout = 60 * time.Second

// VehicleResolver resolves a VIN to its documentation directory.
type VehicleResolver interface {
	Resolve(ctx context.Context, vin string) (resolver.Resolution, error)
}

// CategoryLister lists the sub-categories of a documentation section.
type CategoryLister interface {
	List(ctx context.Context, baseURL string, section resolver.Section) ([]resolver.Category, error)
}

// IDGenerator produces request IDs.
type IDGenerator interface {
	NewID() string
}

// Options tunes the HTTP surface.
type Options struct {
	// CORSOrigin is the allowed browser origin; empty or "*" allows any.
	CORSOrigin string
	// RequestTimeout bounds each request; zero uses DefaultRequestTimeout.
	RequestTimeout time.Duration
	// IDs generates request IDs; nil uses UUIDv7.
	IDs IDGenerator
}

// Server wires HTTP handlers to the resolver.
type Server struct {
	router   chi.Router
	resolver VehicleResolver
	lister   CategoryLister
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(res VehicleResolver, lister CategoryLister, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		resolver: res,
		lister:   lister,
		logger:   logger,
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ids := opts.IDs
	if ids == nil {
		ids = uuid.NewUUIDGenerator()
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(ids))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware(opts.CORSOrigin))
	r.Use(timeoutMiddleware(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/vehicle", func(r chi.Router) {
		r.Get("/identify", s.identify)
		r.Get("/dtc", s.categories(resolver.SectionDTC))
		r.Get("/labor", s.categories(resolver.SectionLabor))
		r.Get("/repair", s.categories(resolver.SectionRepair))
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Upstreams are consulted per request; there is nothing to warm up.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
