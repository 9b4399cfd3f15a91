package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/report"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBytes = 10 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Calculator runs a decoded calculation request.
type Calculator interface {
	Run(in domain.CalculationInput) (domain.PerformanceReport, error)
}

// Archive stores and looks up performance reports.
type Archive interface {
	SaveBatch(ctx context.Context, reports []domain.PerformanceReport) error
	Get(ctx context.Context, id string) (domain.PerformanceReport, error)
	ListByVoyage(ctx context.Context, voyageID string, since time.Time) ([]domain.PerformanceReport, error)
}

// Server exposes health, readiness, metrics and calculation HTTP endpoints.
type Server struct {
	httpServer *http.Server
	calc       Calculator
	archive    Archive
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil archive disables report lookup.
func NewServer(addr string, ready ReadinessChecker, calc Calculator, archive Archive, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		calc:    calc,
		archive: archive,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/calculations", s.handleCalculate)
	mux.HandleFunc("GET /v1/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /v1/voyages/{id}/reports", s.handleListReports)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// calculationResponse is the report plus its presentation forms.
type calculationResponse struct {
	domain.PerformanceReport
	Summary string       `json:"summary"`
	Rows    []report.Row `json:"rows"`
}

func newCalculationResponse(r domain.PerformanceReport) calculationResponse {
	return calculationResponse{PerformanceReport: r, Summary: report.Summary(r), Rows: report.Rows(r)}
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	in, err := domain.ParseRequest(domain.RawMessage{Value: body})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.calc.Run(in)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if s.archive != nil {
		if err := s.archive.SaveBatch(r.Context(), []domain.PerformanceReport{res}); err != nil {
			s.logger.Error("archive report failed", "error", err, "run_id", res.ID)
		}
	}

	s.logger.Info("calculation served", "run_id", res.ID, "voyage_id", res.VoyageID, "records", res.Metrics.RecordCount)
	s.writeReport(w, r, res)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, domain.ErrReportNotFound)
		return
	}

	res, err := s.archive.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("load report failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("report archive unavailable"))
		return
	}
	s.writeReport(w, r, res)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusOK, []calculationResponse{})
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("since must be an RFC3339 timestamp"))
			return
		}
		since = t
	}

	reports, err := s.archive.ListByVoyage(r.Context(), r.PathValue("id"), since)
	if err != nil {
		s.logger.Error("list reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("report archive unavailable"))
		return
	}

	out := make([]calculationResponse, len(reports))
	for i, res := range reports {
		out[i] = newCalculationResponse(res)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeReport renders JSON by default and the plain-text report for ?format=text.
func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, res domain.PerformanceReport) {
	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.Render(w, res); err != nil {
			s.logger.Warn("render report failed", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(res))
}

// statusFor maps calculation errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case domain.IsConfigurationError(err), errors.Is(err, domain.ErrMalformedRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
