// Package sqlite archives performance reports in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/cp-performance/internal/domain"
	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS performance_reports (
	id TEXT PRIMARY KEY,
	voyage_id TEXT NOT NULL DEFAULT '',
	calculated_at INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_voyage ON performance_reports(voyage_id, calculated_at);`

// Store is a report archive backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch stores reports in one transaction. Saving a report ID twice overwrites it.
func (s *Store) SaveBatch(ctx context.Context, reports []domain.PerformanceReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO performance_reports(id, voyage_id, calculated_at, payload)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		voyage_id=excluded.voyage_id,
		calculated_at=excluded.calculated_at,
		payload=excluded.payload`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.VoyageID, r.CalculatedAt.UnixNano(), payload); err != nil {
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the archived report with the given run ID.
func (s *Store) Get(ctx context.Context, id string) (domain.PerformanceReport, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM performance_reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PerformanceReport{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("query report %s: %w", id, err)
	}
	return decode(payload)
}

// ListByVoyage returns the voyage's reports calculated at or after since,
// newest first. A zero since lists them all.
func (s *Store) ListByVoyage(ctx context.Context, voyageID string, since time.Time) ([]domain.PerformanceReport, error) {
	var sinceNanos int64 = math.MinInt64
	if !since.IsZero() {
		sinceNanos = since.UnixNano()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM performance_reports
		WHERE voyage_id = ? AND calculated_at >= ?
		ORDER BY calculated_at DESC, id`, voyageID, sinceNanos)
	if err != nil {
		return nil, fmt.Errorf("query reports for %s: %w", voyageID, err)
	}
	defer rows.Close()

	var reports []domain.PerformanceReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r, err := decode(payload)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func decode(payload []byte) (domain.PerformanceReport, error) {
	var r domain.PerformanceReport
	if err := json.Unmarshal(payload, &r); err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
