package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	json "github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("V-2403"),
		Value:     []byte(`{"voyage_id":"V-2403"}`),
		Topic:     "voyage-calculation-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("ops-portal")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("V-2403"), raw.Key)
	assert.JSONEq(t, `{"voyage_id":"V-2403"}`, string(raw.Value))
	assert.Equal(t, "voyage-calculation-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "ops-portal", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	report := domain.PerformanceReport{
		ID:           "run-1",
		VoyageID:     "V-2403",
		Term:         domain.CharterPartyTerm{SpeedKn: 12, MEConsumptionMTDay: 20},
		Result:       domain.ReconciliationResult{EffectiveSpeedKn: 11.5},
		CalculatedAt: now,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("V-2403"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "voyage_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("V-2403"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, "calculated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var roundtrip domain.PerformanceReport
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, report.ID, roundtrip.ID)
	assert.Equal(t, 11.5, roundtrip.Result.EffectiveSpeedKn)
	assert.True(t, now.Equal(roundtrip.CalculatedAt))
}

func TestSerializeToMessage_KeyFallsBackToRunID(t *testing.T) {
	msg, err := serializeToMessage(domain.PerformanceReport{ID: "run-7"})
	require.NoError(t, err)
	assert.Equal(t, []byte("run-7"), msg.Key)
}
