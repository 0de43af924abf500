package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"garagelog/internal/analytics"
	"garagelog/internal/config"
	"garagelog/internal/database"
	"garagelog/internal/metrics"
	"garagelog/internal/models"
	"garagelog/internal/service"

	"github.com/rs/zerolog"
)

// Exporter writes the given records somewhere durable and returns the path.
type Exporter interface {
	Export(records []models.ServiceRecord) (string, error)
}

// HTTPServer exposes the service history over a JSON API.
type HTTPServer struct {
	cfg       config.APIConfig
	records   *service.RecordService
	mechanics *service.MechanicService
	engine    *analytics.Engine
	exporter  Exporter
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	records *service.RecordService,
	mechanics *service.MechanicService,
	engine *analytics.Engine,
	exporter Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		records:   records,
		mechanics: mechanics,
		engine:    engine,
		exporter:  exporter,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/records/search", srv.handleRecordSearch)
	mux.HandleFunc("/api/v1/records/bulk/cost", srv.handleBulkCost)
	mux.HandleFunc("/api/v1/records/bulk", srv.handleBulkDelete)
	mux.HandleFunc("/api/v1/records/", srv.handleRecordByID)
	mux.HandleFunc("/api/v1/records", srv.handleRecords)
	mux.HandleFunc("/api/v1/mechanics/", srv.handleMechanicByID)
	mux.HandleFunc("/api/v1/mechanics", srv.handleMechanics)
	mux.HandleFunc("/api/v1/analytics/due-soon", srv.handleDueSoon)
	mux.HandleFunc("/api/v1/analytics/overdue", srv.handleOverdue)
	mux.HandleFunc("/api/v1/analytics/totals", srv.handleTotals)
	mux.HandleFunc("/api/v1/analytics/service-types/top", srv.handleTopServiceType)
	mux.HandleFunc("/api/v1/analytics/owners/top", srv.handleTopOwner)
	mux.HandleFunc("/api/v1/analytics/mechanics/leaderboard", srv.handleLeaderboard)
	mux.HandleFunc("/api/v1/analytics/most-recent", srv.handleMostRecent)
	mux.HandleFunc("/api/v1/reports/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler. Tests serve it directly.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// writeServiceError maps layered errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
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
