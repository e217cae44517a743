package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "position-engine/internal/errors"
	"position-engine/internal/models"
	"position-engine/internal/strategy"
	"position-engine/internal/trading"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based run store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", apperrors.ErrDatabaseError, err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %v", apperrors.ErrDatabaseError, err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per pipeline run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		daily_path TEXT,
		weekly_path TEXT,
		output_path TEXT,
		row_count INTEGER NOT NULL,
		week_count INTEGER NOT NULL,
		execution_count INTEGER NOT NULL,
		combined_final REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Per-strategy action counts for a run
	CREATE TABLE IF NOT EXISTS run_summaries (
		run_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		applied INTEGER NOT NULL,
		clipped INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		lost INTEGER NOT NULL,
		initial REAL NOT NULL,
		final REAL NOT NULL,
		PRIMARY KEY (run_id, strategy),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Ledger totals per daily row
	CREATE TABLE IF NOT EXISTS run_rows (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		date DATETIME NOT NULL,
		pcr_bbi_total REAL,
		accumulation_total REAL,
		amplitude_total REAL,
		weekly_total REAL,
		combined_total REAL,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Scheduled actions and their outcomes
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		detected_at DATETIME NOT NULL,
		scheduled_for DATETIME NOT NULL,
		action TEXT NOT NULL,
		requested REAL NOT NULL,
		applied REAL NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_executions_run ON executions(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Runs
// ============================================================================

// SaveRun stores a run, its summaries, its per-row totals and its
// executions in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, result *trading.Result, meta RunMeta) error {
	if result == nil || result.Daily == nil {
		return fmt.Errorf("%w: nothing to save", apperrors.ErrInputValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var combinedFinal float64
	if result.Combined != nil && len(result.Combined.Totals) > 0 {
		combinedFinal = result.Combined.Totals[len(result.Combined.Totals)-1]
	}
	weeks := 0
	if result.Weekly != nil {
		weeks = result.Weekly.Len()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, daily_path, weekly_path, output_path, row_count, week_count, execution_count, combined_final)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.StartedAt, result.Duration.Milliseconds(), meta.DailyPath, meta.WeeklyPath, meta.OutputPath,
		result.Daily.Len(), weeks, len(result.Executions), combinedFinal)
	if err != nil {
		return dbErr("failed to insert run", err)
	}

	if err := insertSummaries(ctx, tx, result); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, result); err != nil {
		return err
	}
	if err := insertExecutions(ctx, tx, result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbErr("failed to commit transaction", err)
	}

	return nil
}

func insertSummaries(ctx context.Context, tx *sql.Tx, result *trading.Result) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_summaries (run_id, strategy, applied, clipped, skipped, lost, initial, final)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbErr("failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, sm := range result.Summaries {
		if _, err := stmt.ExecContext(ctx, result.RunID, sm.Strategy, sm.Applied, sm.Clipped, sm.Skipped, sm.Lost, sm.Initial, sm.Final); err != nil {
			return dbErr("failed to insert summary", err)
		}
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, result *trading.Result) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_rows (run_id, idx, date, pcr_bbi_total, accumulation_total, amplitude_total, weekly_total, combined_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbErr("failed to prepare statement", err)
	}
	defer stmt.Close()

	total := func(name string, i int) interface{} {
		l, ok := result.Ledgers[name]
		if !ok || i >= l.Len() {
			return nil
		}
		return l.Total(i)
	}

	for i, row := range result.Daily.Rows {
		var combined interface{}
		if result.Combined != nil && i < len(result.Combined.Totals) {
			combined = result.Combined.Totals[i]
		}
		_, err := stmt.ExecContext(ctx, result.RunID, i, row.Date,
			total(strategy.NamePCRBBI, i),
			total(strategy.NameAccumulation, i),
			total(strategy.NameAmplitude, i),
			total(strategy.NameWeekly, i),
			combined)
		if err != nil {
			return dbErr("failed to insert run row", err)
		}
	}
	return nil
}

func insertExecutions(ctx context.Context, tx *sql.Tx, result *trading.Result) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO executions (run_id, strategy, detected_at, scheduled_for, action, requested, applied, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbErr("failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, e := range result.Executions {
		_, err := stmt.ExecContext(ctx, result.RunID, e.Strategy, e.DetectedAt, e.ScheduledFor,
			string(e.Action), e.Requested, e.Applied, string(e.Status), e.Reason)
		if err != nil {
			return dbErr("failed to insert execution", err)
		}
	}
	return nil
}

// ListRuns retrieves runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := "SELECT id, started_at, duration_ms, daily_path, weekly_path, output_path, row_count, week_count, execution_count, combined_final FROM runs WHERE 1=1"
	args := []interface{}{}

	if !filter.Since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.Since)
	}

	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("failed to query runs", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("failed to iterate runs", err)
	}

	for i := range runs {
		if runs[i].Summaries, err = s.getSummaries(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRun retrieves one run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, daily_path, weekly_path, output_path, row_count, week_count, execution_count, combined_final
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if apperrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", apperrors.ErrDataNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if r.Summaries, err = s.getSummaries(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var r RunRecord
	var durationMs int64
	var daily, weekly, output sql.NullString
	var combined sql.NullFloat64

	if err := row.Scan(&r.ID, &r.StartedAt, &durationMs, &daily, &weekly, &output, &r.Rows, &r.Weeks, &r.Executions, &combined); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, dbErr("failed to scan run", err)
	}

	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.DailyPath = daily.String
	r.WeeklyPath = weekly.String
	r.OutputPath = output.String
	r.CombinedFinal = combined.Float64
	return &r, nil
}

func (s *SQLiteStore) getSummaries(ctx context.Context, runID string) ([]trading.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy, applied, clipped, skipped, lost, initial, final
		FROM run_summaries WHERE run_id = ?
		ORDER BY rowid ASC
	`, runID)
	if err != nil {
		return nil, dbErr("failed to query summaries", err)
	}
	defer rows.Close()

	var out []trading.Summary
	for rows.Next() {
		var sm trading.Summary
		if err := rows.Scan(&sm.Strategy, &sm.Applied, &sm.Clipped, &sm.Skipped, &sm.Lost, &sm.Initial, &sm.Final); err != nil {
			return nil, dbErr("failed to scan summary", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// ============================================================================
// Rows and executions
// ============================================================================

// GetRunRows retrieves the per-row ledger totals of a run in row order.
func (s *SQLiteStore) GetRunRows(ctx context.Context, runID string) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, date, pcr_bbi_total, accumulation_total, amplitude_total, weekly_total, combined_total
		FROM run_rows WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, dbErr("failed to query run rows", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var pcr, acc, amp, wk, combined sql.NullFloat64
		if err := rows.Scan(&r.Index, &r.Date, &pcr, &acc, &amp, &wk, &combined); err != nil {
			return nil, dbErr("failed to scan run row", err)
		}
		r.PCRBBI = pcr.Float64
		r.Accumulation = acc.Float64
		r.Amplitude = amp.Float64
		r.Weekly = wk.Float64
		r.Combined = combined.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetExecutions retrieves the executions of a run in the order they were
// recorded.
func (s *SQLiteStore) GetExecutions(ctx context.Context, runID string) ([]models.Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy, detected_at, scheduled_for, action, requested, applied, status, reason
		FROM executions WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, dbErr("failed to query executions", err)
	}
	defer rows.Close()

	var out []models.Execution
	for rows.Next() {
		var e models.Execution
		var action, status string
		var reason sql.NullString
		if err := rows.Scan(&e.Strategy, &e.DetectedAt, &e.ScheduledFor, &action, &e.Requested, &e.Applied, &status, &reason); err != nil {
			return nil, dbErr("failed to scan execution", err)
		}
		e.Action = models.Action(action)
		e.Status = models.ExecutionStatus(status)
		e.Reason = reason.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func dbErr(message string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperrors.ErrDatabaseError, message, err)
}
