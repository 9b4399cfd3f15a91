//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("cp-performance-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// calculationRequest builds a one-term request whose good-weather speed is speedKn.
func calculationRequest(t *testing.T, voyageID string, speedKn float64) []byte {
	t.Helper()
	in := domain.CalculationInput{
		VoyageID: voyageID,
		Vessel:   domain.Vessel{Name: "MV Integration", IMO: "9123456"},
		Terms:    []domain.CharterPartyTerm{{Label: "laden", SpeedKn: 12, MEConsumptionMTDay: 20}},
		Rows: []domain.RawRow{
			{"timestamp": "2024-04-01 12:00", "event_type": "NOON AT SEA", "distance": strconv.FormatFloat(speedKn*24, 'f', -1, 64), "steaming_time_hrs": "24", "me_fuel_consumed": "20", "day_status": "GOOD WEATHER DAY"},
			{"timestamp": "2024-04-02 12:00", "event_type": "NOON AT SEA", "distance": "240", "steaming_time_hrs": "24", "me_fuel_consumed": "22", "day_status": "BAD WEATHER DAY"},
		},
	}
	payload, err := json.Marshal(in)
	require.NoError(t, err)
	return payload
}

// publishedReport is one report read back from the sink topic.
type publishedReport struct {
	Report  domain.PerformanceReport
	Key     string
	Headers map[string]string
}

func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.PerformanceReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return publishedReport{Report: report, Key: string(msg.Key), Headers: headers}
}
