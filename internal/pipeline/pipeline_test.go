package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	"github.com/couchcryptid/cp-performance/internal/observability"
	"github.com/couchcryptid/cp-performance/internal/pipeline"
	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawMessage
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawMessage, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockCalculator struct {
	err error
}

func (m *mockCalculator) Calculate(_ context.Context, raw domain.RawMessage) (domain.PerformanceReport, error) {
	if m.err != nil {
		return domain.PerformanceReport{}, m.err
	}
	return domain.PerformanceReport{ID: "run-" + string(raw.Key), VoyageID: string(raw.Key)}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.PerformanceReport
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.PerformanceReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func (m *mockLoader) Loaded() []domain.PerformanceReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PerformanceReport(nil), m.loaded...)
}

type mockArchive struct {
	saved []domain.PerformanceReport
	err   error
}

func (m *mockArchive) SaveBatch(_ context.Context, reports []domain.PerformanceReport) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, reports...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	batch := []domain.RawMessage{{Key: []byte("V1")}, {Key: []byte("V2")}}

	ext := &mockExtractor{batches: [][]domain.RawMessage{batch}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockCalculator{}, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	loaded := ldr.Loaded()
	require.Len(t, loaded, 2)
	assert.Equal(t, "V1", loaded[0].VoyageID)
	assert.Equal(t, "V2", loaded[1].VoyageID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RequestsConsumed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReportsProduced))
	assert.Zero(t, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no requests, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockCalculator{}, ldr, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.Loaded())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RejectedRequestIsCommittedAndSkipped(t *testing.T) {
	var commits atomic.Int32
	raw := domain.RawMessage{
		Key:    []byte("V1"),
		Topic:  "voyage-calculation-requests",
		Commit: func(context.Context) error { commits.Add(1); return nil },
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	calc := &mockCalculator{err: &domain.ValidationError{Field: "terms[0].speed_kn", Message: "must be greater than 0"}}

	p := pipeline.New(ext, calc, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, ldr.Loaded())
	assert.Equal(t, int32(1), commits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CalculationErrors.WithLabelValues(observability.ErrorKindValidation)))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	raw := domain.RawMessage{
		Key:    []byte("V1"),
		Commit: func(context.Context) error { record("commit"); return nil },
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &recordingLoader{record: record}

	p := pipeline.New(ext, &mockCalculator{}, ldr, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"load", "commit"}, order)
}

type recordingLoader struct {
	record func(string)
}

func (r *recordingLoader) LoadBatch(context.Context, []domain.PerformanceReport) error {
	r.record("load")
	return nil
}

func TestPipeline_Run_RetriesFailedLoad(t *testing.T) {
	var committed atomic.Bool
	raw := domain.RawMessage{
		Key:    []byte("V1"),
		Commit: func(context.Context) error { committed.Store(true); return nil },
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockCalculator{}, ldr, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, time.Second)

	assert.Len(t, ldr.Loaded(), 1)
	assert.True(t, committed.Load())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, observability.ErrorKindValidation,
		pipeline.ErrorKind(fmt.Errorf("wrap: %w", &domain.ValidationError{Field: "x"})))
	assert.Equal(t, observability.ErrorKindConfiguration, pipeline.ErrorKind(domain.ErrNoCharterPartyTerm))
	assert.Equal(t, observability.ErrorKindConfiguration,
		pipeline.ErrorKind(fmt.Errorf("%w: index 2", domain.ErrTermIndexOutOfRange)))
	assert.Equal(t, observability.ErrorKindMalformed, pipeline.ErrorKind(domain.ErrMalformedRequest))
}

func TestCalculationTransformer_Calculate(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	domain.SetIDGenerator(func() string { return "run-1" })
	t.Cleanup(func() {
		domain.SetClock(nil)
		domain.SetIDGenerator(nil)
	})

	payload, err := json.Marshal(domain.CalculationInput{
		Terms: []domain.CharterPartyTerm{{SpeedKn: 12, MEConsumptionMTDay: 20}},
		Rows: []domain.RawRow{
			{"event_type": "NOON AT SEA", "distance": "288", "time_hrs": "24", "me_fuel": "20"},
			{"event_type": "NOON AT SEA", "distance": "276", "time_hrs": "24", "me_fuel": "21", "weather_status": "BAD WEATHER DAY"},
		},
	})
	require.NoError(t, err)

	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(domain.Tolerances{SpeedKn: 1, FuelPct: 10}, slog.Default(), metrics)

	report, err := tfm.Calculate(context.Background(), domain.RawMessage{Key: []byte("V-9"), Value: payload})
	require.NoError(t, err)

	want := struct {
		ID, VoyageID string
		Tolerances   domain.Tolerances
		CalculatedAt time.Time
		Good, Bad    int
	}{"run-1", "V-9", domain.Tolerances{SpeedKn: 1, FuelPct: 10}, fixed, 1, 1}
	got := struct {
		ID, VoyageID string
		Tolerances   domain.Tolerances
		CalculatedAt time.Time
		Good, Bad    int
	}{report.ID, report.VoyageID, report.Tolerances, report.CalculatedAt, report.Metrics.GoodCount, report.Metrics.BadCount}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}

	assert.InDelta(t, 22.0, report.Result.BandUpperMTDay, 1e-9)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsAnalysed))
}

func TestCalculationTransformer_RequestTolerancesWin(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.DefaultTolerances(), slog.Default(), newTestMetrics())

	report, err := tfm.Run(domain.CalculationInput{
		Terms:      []domain.CharterPartyTerm{{SpeedKn: 12, MEConsumptionMTDay: 20}},
		Tolerances: &domain.Tolerances{SpeedKn: 0.25, FuelPct: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Tolerances{SpeedKn: 0.25, FuelPct: 3}, report.Tolerances)
}

func TestCalculationTransformer_Errors(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.DefaultTolerances(), slog.Default(), newTestMetrics())

	_, err := tfm.Calculate(context.Background(), domain.RawMessage{Value: []byte("not json")})
	assert.ErrorIs(t, err, domain.ErrMalformedRequest)

	_, err = tfm.Calculate(context.Background(), domain.RawMessage{Value: []byte(`{"rows": []}`)})
	assert.ErrorIs(t, err, domain.ErrNoCharterPartyTerm)
}

func TestArchivingLoader(t *testing.T) {
	reports := []domain.PerformanceReport{{ID: "run-1"}, {ID: "run-2"}}

	t.Run("publishes then archives", func(t *testing.T) {
		sink := &mockLoader{}
		archive := &mockArchive{}
		metrics := newTestMetrics()

		l := pipeline.NewArchivingLoader(sink, archive, slog.Default(), metrics)
		require.NoError(t, l.LoadBatch(context.Background(), reports))

		assert.Len(t, sink.Loaded(), 2)
		assert.Len(t, archive.saved, 2)
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReportsArchived))
	})

	t.Run("archive failure does not fail the batch", func(t *testing.T) {
		sink := &mockLoader{}
		l := pipeline.NewArchivingLoader(sink, &mockArchive{err: errors.New("disk full")}, slog.Default(), newTestMetrics())

		require.NoError(t, l.LoadBatch(context.Background(), reports))
		assert.Len(t, sink.Loaded(), 2)
	})

	t.Run("sink failure skips archive", func(t *testing.T) {
		archive := &mockArchive{}
		l := pipeline.NewArchivingLoader(&mockLoader{failures: 1}, archive, slog.Default(), newTestMetrics())

		require.Error(t, l.LoadBatch(context.Background(), reports))
		assert.Empty(t, archive.saved)
	})

	t.Run("nil archive returns sink", func(t *testing.T) {
		sink := &mockLoader{}
		assert.Same(t, sink, pipeline.NewArchivingLoader(sink, nil, slog.Default(), newTestMetrics()))
	})
}
