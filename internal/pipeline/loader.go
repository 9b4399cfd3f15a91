package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/observability"
)

// ReportArchive stores performance reports for later lookup.
type ReportArchive interface {
	SaveBatch(ctx context.Context, reports []domain.PerformanceReport) error
}

// ArchivingLoader publishes reports to the sink and then saves them to the
// archive. An archive failure is logged and does not fail the batch, since
// the reports have already been published.
type ArchivingLoader struct {
	sink    BatchLoader
	archive ReportArchive
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewArchivingLoader wraps sink with an archive. A nil archive returns sink unchanged.
func NewArchivingLoader(sink BatchLoader, archive ReportArchive, logger *slog.Logger, metrics *observability.Metrics) BatchLoader {
	if archive == nil {
		return sink
	}
	return &ArchivingLoader{sink: sink, archive: archive, logger: logger, metrics: metrics}
}

func (l *ArchivingLoader) LoadBatch(ctx context.Context, reports []domain.PerformanceReport) error {
	if err := l.sink.LoadBatch(ctx, reports); err != nil {
		return fmt.Errorf("publish reports: %w", err)
	}
	if err := l.archive.SaveBatch(ctx, reports); err != nil {
		l.logger.Error("archive reports failed", "error", err, "batch_size", len(reports))
		return nil
	}
	l.metrics.ReportsArchived.Add(float64(len(reports)))
	return nil
}
