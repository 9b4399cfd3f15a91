package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cp-performance/internal/config"
	"github.com/couchcryptid/cp-performance/internal/domain"
	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces performance reports to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple reports in a single
// WriteMessages call. Reports of one voyage share a key and so a partition.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.PerformanceReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	w.logger.Debug("reports published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PerformanceReport into a Kafka message keyed
// by voyage, or by run ID when the request named no voyage.
func serializeToMessage(report domain.PerformanceReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize performance report: %w", err)
	}
	key := report.VoyageID
	if key == "" {
		key = report.ID
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "voyage_id", Value: []byte(report.VoyageID)},
			{Key: "run_id", Value: []byte(report.ID)},
			{Key: "calculated_at", Value: []byte(report.CalculatedAt.Format(time.RFC3339))},
		},
	}, nil
}
