package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// ErrMalformedRequest is returned when a request payload cannot be decoded.
var ErrMalformedRequest = errors.New("malformed calculation request")

// RawMessage represents an unprocessed calculation request from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRequest decodes a RawMessage value into a CalculationInput. A message
// without a voyage ID takes its key as the voyage reference.
func ParseRequest(raw RawMessage) (CalculationInput, error) {
	var in CalculationInput
	if err := json.Unmarshal(raw.Value, &in); err != nil {
		return CalculationInput{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if in.VoyageID == "" && len(raw.Key) > 0 {
		in.VoyageID = string(raw.Key)
	}
	return in, nil
}

// UnmarshalJSON accepts any scalar cell. Numbers and booleans keep their JSON
// text, null becomes "", and objects or arrays become "" so that a single odd
// cell degrades to zero instead of rejecting the request.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var cells map[string]json.RawMessage
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	if cells == nil {
		*r = nil
		return nil
	}

	row := make(RawRow, len(cells))
	for col, v := range cells {
		row[col] = cellText(v)
	}
	*r = row
	return nil
}

func cellText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(v)
	}
}
