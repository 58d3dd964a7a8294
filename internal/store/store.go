// Package store keeps a local history of sweep and comparison runs in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/thinkroute/internal/models"

	_ "modernc.org/sqlite"
)

// DefaultPath is the history database relative to the project root.
var DefaultPath = filepath.Join(".thinkroute", "history.db")

// Kind tells sweep runs from comparison runs.
type Kind string

const (
	KindSweep   Kind = "sweep"
	KindCompare Kind = "compare"
)

// ErrNotFound is returned when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// Run is one history row without its payload.
type Run struct {
	ID           string
	Kind         Kind
	CreatedAt    time.Time
	Oracle       string
	Examples     int
	Configs      int
	Skipped      int
	BestLabel    string
	BestAccuracy float64
	DurationMs   int64
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating its parent
// directory when needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// SaveSweep records a sweep outcome. A missing RunID is filled in.
func (s *Store) SaveSweep(ctx context.Context, outcome *models.SweepOutcome) (string, error) {
	if outcome.RunID == "" {
		outcome.RunID = uuid.NewString()
	}

	run := Run{
		ID:         outcome.RunID,
		Kind:       KindSweep,
		CreatedAt:  outcome.Timestamp,
		Oracle:     outcome.Oracle,
		Examples:   outcome.Examples,
		Configs:    len(outcome.Results),
		Skipped:    len(outcome.Skipped),
		DurationMs: outcome.DurationMs,
	}
	if best := outcome.Best(); best != nil {
		run.BestLabel = best.Thresholds.String()
		run.BestAccuracy = best.Accuracy
	}
	return run.ID, s.insert(ctx, run, outcome)
}

// SaveComparison records a benchmark report under a new run ID.
func (s *Store) SaveComparison(ctx context.Context, report *models.ComparisonReport) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		Kind:      KindCompare,
		CreatedAt: report.Timestamp,
		Examples:  report.TotalExamples,
		Configs:   len(report.Routers),
		BestLabel: report.Best,
	}
	if best, ok := report.Router(report.Best); ok {
		run.BestAccuracy = best.Result.Accuracy
		run.Skipped = best.Result.SkippedCount()
	}
	return run.ID, s.insert(ctx, run, report)
}

func (s *Store) insert(ctx context.Context, run Run, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s run: %w", run.Kind, err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs(id, kind, created_at, oracle, examples, configs, skipped, best_label, best_accuracy, duration_ms, payload)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Oracle,
		run.Examples, run.Configs, run.Skipped, run.BestLabel, run.BestAccuracy, run.DurationMs, data)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, kind, created_at, oracle, examples, configs, skipped, best_label, best_accuracy, duration_ms
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			kind      string
			createdAt string
			oracle    sql.NullString
			bestLabel sql.NullString
			bestAcc   sql.NullFloat64
			duration  sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &kind, &createdAt, &oracle, &r.Examples, &r.Configs, &r.Skipped, &bestLabel, &bestAcc, &duration); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Kind = Kind(kind)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.Oracle = oracle.String
		r.BestLabel = bestLabel.String
		r.BestAccuracy = bestAcc.Float64
		r.DurationMs = duration.Int64
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadSweep returns the stored sweep outcome for id.
func (s *Store) LoadSweep(ctx context.Context, id string) (*models.SweepOutcome, error) {
	var outcome models.SweepOutcome
	if err := s.load(ctx, id, KindSweep, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// LoadComparison returns the stored comparison report for id.
func (s *Store) LoadComparison(ctx context.Context, id string) (*models.ComparisonReport, error) {
	var report models.ComparisonReport
	if err := s.load(ctx, id, KindCompare, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Store) load(ctx context.Context, id string, kind Kind, into any) error {
	var (
		gotKind string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, "SELECT kind, payload FROM runs WHERE id = ?", id).Scan(&gotKind, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("load run %s: %w", id, err)
	}
	if Kind(gotKind) != kind {
		return fmt.Errorf("run %s is a %s run, not %s", id, gotKind, kind)
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("decode run %s: %w", id, err)
	}
	return nil
}
