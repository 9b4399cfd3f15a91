// Package table reads uploaded telemetry tables into raw domain rows.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/cp-performance/internal/domain"
)

// ErrNoHeader is returned for an input without a header line.
var ErrNoHeader = errors.New("table has no header row")

const utf8BOM = "\uFEFF"

// ReadCSV parses a CSV table with a header row. Short rows leave their
// missing columns empty and extra cells are dropped; cell values are
// passed through untouched for the normalizer to coerce.
func ReadCSV(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.RawRow
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, toRow(header, record))
	}
	return rows, nil
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func toRow(header, record []string) domain.RawRow {
	row := make(domain.RawRow, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		if _, dup := row[col]; dup {
			continue
		}
		if i < len(record) {
			row[col] = record[i]
		} else {
			row[col] = ""
		}
	}
	return row
}
