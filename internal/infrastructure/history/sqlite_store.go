// Package history persists plan provenance for later inspection.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

const planColumns = "id, timestamp, question, mode, planner, fallback_reason, kpi, dimension, sql, duration_ms"

// SQLiteStore persists plan records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open returns a SQLite store at path, falling back to a JSONL file next to it
// when the database cannot be opened.
func Open(path string) ports.HistoryRepository {
	store, err := NewSQLiteStore(path)
	if err != nil {
		return NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	}
	return store
}

// NewSQLiteStore creates (or opens) the history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		question TEXT,
		mode TEXT,
		planner TEXT,
		fallback_reason TEXT,
		kpi TEXT,
		dimension TEXT,
		sql TEXT,
		duration_ms INTEGER
	);`)
	return err
}

// Save implements ports.HistoryRepository.
func (s *SQLiteStore) Save(ctx context.Context, rec domain.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(domain.TimestampFormat),
		rec.Question,
		string(rec.Mode),
		string(rec.Planner),
		string(rec.FallbackReason),
		rec.KPI,
		rec.Dimension,
		rec.SQL,
		rec.DurationMS,
	)
	return err
}

// List returns the newest records first. A non-positive limit returns everything.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.PlanRecord, error) {
	return s.query(ctx, "", limit)
}

// Search matches the term against question, KPI, planner and SQL.
func (s *SQLiteStore) Search(ctx context.Context, term string, limit int) ([]domain.PlanRecord, error) {
	return s.query(ctx, term, limit)
}

func (s *SQLiteStore) query(ctx context.Context, term string, limit int) ([]domain.PlanRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + planColumns + " FROM plans")
	var args []interface{}
	if term != "" {
		like := "%" + term + "%"
		builder.WriteString(" WHERE question LIKE ? OR kpi LIKE ? OR planner LIKE ? OR sql LIKE ?")
		args = append(args, like, like, like, like)
	}
	builder.WriteString(" ORDER BY timestamp DESC, rowid DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PlanRecord
	for rows.Next() {
		var rec domain.PlanRecord
		var ts, mode, planner, reason string
		if err := rows.Scan(&rec.ID, &ts, &rec.Question, &mode, &planner, &reason,
			&rec.KPI, &rec.Dimension, &rec.SQL, &rec.DurationMS); err != nil {
			return nil, err
		}
		if t, err := time.Parse(domain.TimestampFormat, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Mode = domain.Mode(mode)
		rec.Planner = domain.Strategy(planner)
		rec.FallbackReason = domain.ReasonCode(reason)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats aggregates records by provenance, fallback reason and KPI.
func (s *SQLiteStore) Stats(ctx context.Context) (domain.HistoryStats, error) {
	records, err := s.List(ctx, 0)
	if err != nil {
		return domain.HistoryStats{}, err
	}
	return computeStats(records), nil
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM plans")
	return err
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
