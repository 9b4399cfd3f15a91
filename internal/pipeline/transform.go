package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/observability"
)

// CalculationTransformer implements Calculator by decoding the request and
// running the domain engine on it.
type CalculationTransformer struct {
	tolerances domain.Tolerances
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTransformer creates a CalculationTransformer. Requests without tolerances
// of their own are reconciled with the given defaults.
func NewTransformer(tolerances domain.Tolerances, logger *slog.Logger, metrics *observability.Metrics) *CalculationTransformer {
	return &CalculationTransformer{
		tolerances: tolerances,
		logger:     logger,
		metrics:    metrics,
	}
}

func (t *CalculationTransformer) Calculate(_ context.Context, raw domain.RawMessage) (domain.PerformanceReport, error) {
	in, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.PerformanceReport{}, err
	}
	return t.Run(in)
}

// Run calculates a decoded request, applying the default tolerances and
// recording calculation metrics.
func (t *CalculationTransformer) Run(in domain.CalculationInput) (domain.PerformanceReport, error) {
	if in.Tolerances == nil {
		tol := t.tolerances
		in.Tolerances = &tol
	}

	start := time.Now()
	report, err := domain.Calculate(in)
	if err != nil {
		return domain.PerformanceReport{}, err
	}
	t.metrics.CalculationDuration.Observe(time.Since(start).Seconds())
	t.metrics.RecordsIngested.Add(float64(report.InputRows))
	t.metrics.RecordsAnalysed.Add(float64(report.Metrics.RecordCount))

	t.logger.Debug("calculation complete",
		"run_id", report.ID,
		"voyage_id", report.VoyageID,
		"records", report.Metrics.RecordCount,
		"effective_speed", report.Result.EffectiveSpeedKn,
	)
	return report, nil
}

// ErrorKind classifies a calculation error for metrics and HTTP status mapping.
func ErrorKind(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return observability.ErrorKindValidation
	case domain.IsConfigurationError(err):
		return observability.ErrorKindConfiguration
	default:
		return observability.ErrorKindMalformed
	}
}
