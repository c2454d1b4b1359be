package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

const internalErrorMessage = "Internal Server Error"

type identifyResponse struct {
	Status string `json:"status"`
	resolver.Resolution
}

type identifyFailure struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type categoriesResponse struct {
	Categories []resolver.Category `json:"categories"`
}

func (s *Server) identify(w http.ResponseWriter, r *http.Request) {
	vin := r.URL.Query().Get("vin")
	if strings.TrimSpace(vin) == "" {
		writeError(w, http.StatusBadRequest, "VIN is required")
		return
	}

	res, err := s.resolver.Resolve(r.Context(), vin)
	if err != nil {
		status := statusFor(err)
		msg := resolver.PublicMessage(err, internalErrorMessage)
		if status == http.StatusInternalServerError {
			msg = internalErrorMessage
		}
		s.logger.Warn("identify failed",
			zap.String("vin", vin),
			zap.Int("status", status),
			zap.String("kind", resolver.KindOf(err).String()),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, identifyFailure{Status: "not_found", Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, identifyResponse{Status: "found", Resolution: res})
}

func (s *Server) categories(section resolver.Section) http.HandlerFunc {
	failure := "Failed to scrape " + section.Label() + " directory"
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := r.URL.Query().Get("baseUrl")
		if strings.TrimSpace(baseURL) == "" {
			writeError(w, http.StatusBadRequest, "baseUrl is required")
			return
		}

		categories, err := s.lister.List(r.Context(), baseURL, section)
		if err != nil {
			if resolver.KindOf(err) == resolver.KindInvalidInput {
				writeError(w, http.StatusBadRequest, resolver.PublicMessage(err, "baseUrl is required"))
				return
			}
			s.logger.Error("category listing failed",
				zap.String("section", string(section)),
				zap.String("base_url", baseURL),
				zap.String("request_id", RequestID(r.Context())),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, failure)
			return
		}
		if categories == nil {
			categories = []resolver.Category{}
		}
		writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
	}
}

func statusFor(err error) int {
	switch resolver.KindOf(err) {
	case resolver.KindNotFound:
		return http.StatusNotFound
	case resolver.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
