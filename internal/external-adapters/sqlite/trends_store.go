// Package sqlite stores memory usage figures across commits so size trends
// can be tracked locally over time.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"

	"github.com/ochairo/sketchci/internal/domain/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS size_trends (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	board TEXT NOT NULL,
	sketch TEXT NOT NULL,
	commit_hash TEXT NOT NULL,
	commit_url TEXT NOT NULL,
	memory_type TEXT NOT NULL,
	absolute INTEGER,
	maximum INTEGER,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_size_trends_sketch ON size_trends(board, sketch, memory_type);
`

// TrendsStore persists per-commit memory usage rows to a SQLite database.
type TrendsStore struct {
	db *sql.DB
}

// TrendPoint is one recorded figure for a sketch on a board.
type TrendPoint struct {
	CommitHash string
	MemoryType string
	Absolute   int64
	Maximum    sql.NullInt64
	RecordedAt time.Time
}

// OpenTrendsStore opens (creating if needed) the database at path.
func OpenTrendsStore(path string) (*TrendsStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open trends database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize trends schema: %w", err)
	}
	return &TrendsStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *TrendsStore) Close() error {
	return s.db.Close()
}

// RecordReport inserts one row per known size figure in the report and
// returns the number of rows written. Figures that could not be determined
// during compilation are skipped.
func (s *TrendsStore) RecordReport(report *entities.SketchesReport) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	//nolint:errcheck // Rollback is a no-op after commit
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO size_trends
		(board, sketch, commit_hash, commit_url, memory_type, absolute, maximum, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	//nolint:errcheck // Defer close on prepared statement
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	rows := 0
	for _, board := range report.Boards {
		for _, sketch := range board.Sketches {
			for _, size := range sketch.Sizes {
				if !size.Current.Absolute.Known() {
					continue
				}
				absolute := size.Current.Absolute.Int()
				var maximum any
				if size.Maximum.Known() {
					maximum = size.Maximum.Int()
				}
				if _, err := stmt.Exec(board.Board, sketch.Name, report.CommitHash, report.CommitURL,
					size.Name, absolute, maximum, now); err != nil {
					return 0, fmt.Errorf("failed to insert trend row: %w", err)
				}
				rows++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit trend rows: %w", err)
	}
	return rows, nil
}

// SketchHistory returns the recorded figures for one sketch on one board,
// oldest first.
func (s *TrendsStore) SketchHistory(board, sketch string) ([]TrendPoint, error) {
	rows, err := s.db.Query(`SELECT commit_hash, memory_type, absolute, maximum, recorded_at
		FROM size_trends WHERE board = ? AND sketch = ? ORDER BY recorded_at, id`, board, sketch)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	//nolint:errcheck // Defer close on query rows
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var point TrendPoint
		var recordedAt string
		if err := rows.Scan(&point.CommitHash, &point.MemoryType, &point.Absolute, &point.Maximum, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			point.RecordedAt = t
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trend rows: %w", err)
	}
	return points, nil
}
