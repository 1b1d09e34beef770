package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shorebook/internal/catalog"
	"shorebook/internal/config"
	"shorebook/internal/domain"
	"shorebook/internal/metrics"
	"shorebook/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Deps bundles the collaborators the HTTP layer drives.
type Deps struct {
	Catalog      *catalog.Snapshot
	Availability domain.AvailabilityChecker
	Safeguards   *service.SafeguardPipeline
	Resolutions  *service.ResolutionCoordinator
	Committer    *service.CommitterService
	Directory    domain.CustomerDirectory
	Quoter       domain.PricingQuoter
	Store        domain.Store
}

// HTTPServer exposes the booking engine over HTTP.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, deps: deps, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("GET /api/v1/resources", srv.handleListResources)
	mux.HandleFunc("POST /api/v1/availability/bulk", srv.handleAvailabilityBulk)
	mux.HandleFunc("GET /api/v1/availability/bulk", srv.handleAvailabilityBulk)
	mux.HandleFunc("POST /api/v1/drafts/evaluate", srv.handleEvaluateDraft)
	mux.HandleFunc("GET /api/v1/resolutions/{id}", srv.handleGetResolution)
	mux.HandleFunc("POST /api/v1/resolutions/{id}/assign", srv.handleAssignResolution)
	mux.HandleFunc("POST /api/v1/resolutions/{id}/retry", srv.handleRetryResolution)
	mux.HandleFunc("DELETE /api/v1/resolutions/{id}", srv.handleAbandonResolution)
	mux.HandleFunc("POST /api/v1/reservations", srv.handleCreateReservation)
	mux.HandleFunc("GET /api/v1/reservations/{id}", srv.handleGetReservation)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", srv.handleCancelReservation)
	mux.HandleFunc("POST /api/v1/guests", srv.handleCreateGuest)
	mux.HandleFunc("POST /api/v1/quotes", srv.handleQuote)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(endpointLabel(r))
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// endpointLabel collapses path parameters so metric cardinality stays flat.
func endpointLabel(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/resolutions/"):
		path = "/api/v1/resolutions/{id}"
		if strings.HasSuffix(r.URL.Path, "/assign") {
			path += "/assign"
		} else if strings.HasSuffix(r.URL.Path, "/retry") {
			path += "/retry"
		}
	case strings.HasPrefix(path, "/api/v1/reservations/"):
		path = "/api/v1/reservations/{id}"
	}
	return r.Method + " " + path
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
