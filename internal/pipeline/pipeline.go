package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/observability"
)

// BatchExtractor reads up to batchSize calculation requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Calculator turns one calculation request into a performance report.
type Calculator interface {
	Calculate(ctx context.Context, raw domain.RawMessage) (domain.PerformanceReport, error)
}

// BatchLoader writes multiple performance reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, reports []domain.PerformanceReport) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-calculate-load loop.
type Pipeline struct {
	extractor  BatchExtractor
	calculator Calculator
	loader     BatchLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	batchSize  int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, c Calculator, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:  e,
		calculator: c,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one report.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any reports yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff on broker or sink failures, reset after every good extract.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-calculate-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RequestsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.calculateAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// calculateAndLoad runs every request in the batch, loads the reports and
// commits offsets. Rejected requests are committed immediately so a bad
// request cannot block its partition. Returns the number of loaded reports
// and false if the pipeline should stop.
func (p *Pipeline) calculateAndLoad(ctx context.Context, rawBatch []domain.RawMessage, backoff *time.Duration) (int, bool) {
	reports := make([]domain.PerformanceReport, 0, len(rawBatch))
	accepted := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		report, err := p.calculator.Calculate(ctx, raw)
		if err != nil {
			p.logger.Warn("calculation rejected, skipping request",
				"error", err,
				"kind", ErrorKind(err),
				"key", string(raw.Key),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.CalculationErrors.WithLabelValues(ErrorKind(err)).Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		reports = append(reports, report)
		accepted = append(accepted, raw)
	}

	if len(reports) == 0 {
		return 0, true
	}

	for {
		err := p.loader.LoadBatch(ctx, reports)
		if err == nil {
			break
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(reports))
		if !p.backoffOrStop(ctx, backoff) {
			return 0, false
		}
	}

	p.metrics.ReportsProduced.Add(float64(len(reports)))

	for _, raw := range accepted {
		p.commitOffset(ctx, raw)
	}

	return len(reports), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
