package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/visionpipe/visionpipe/internal/model"
)

// RunDB provides SQLite-based storage for prediction run history.
// It manages connection pooling and provides methods for recording and
// querying runs.
//
// Design decision: We use a single database file for all runs rather
// than one file per run. This keeps history queries trivial and makes
// backup a single-file copy.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "visionpipe.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Run records store one row per prediction run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		strategy TEXT NOT NULL,
		source TEXT NOT NULL,
		batch_size INTEGER NOT NULL,
		total_frames INTEGER NOT NULL,
		processed INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		save_dir TEXT,
		started_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Frame records store one row per surviving frame of a run
	CREATE TABLE IF NOT EXISTS frames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		frame_index INTEGER NOT NULL,
		name TEXT NOT NULL,
		source_path TEXT,
		result_json TEXT NOT NULL,
		captured_at TEXT,
		camera_model TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_frames_run ON frames(run_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord represents a stored run summary.
type RunRecord struct {
	ID          int64
	Strategy    string
	Source      string
	BatchSize   int
	TotalFrames int
	Processed   int
	Dropped     int
	Duration    time.Duration
	SaveDir     string
	StartedAt   time.Time
}

// FrameRecord represents a stored frame outcome.
type FrameRecord struct {
	ID          int64
	RunID       int64
	FrameIndex  int
	Name        string
	SourcePath  string
	Result      *model.Result
	CapturedAt  time.Time
	CameraModel string
}

// SaveRun records a run summary and its surviving frame results in one
// transaction. Results may be empty when retention was off; the run row
// is recorded either way. It returns the new run ID.
func (rdb *RunDB) SaveRun(ctx context.Context, summary *model.RunSummary, results []model.FrameResult) (int64, error) {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (strategy, source, batch_size, total_frames, processed, dropped, duration_ms, save_dir, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.Strategy,
		summary.Source,
		summary.BatchSize,
		summary.TotalFrames,
		summary.Processed,
		summary.Dropped,
		summary.Duration.Milliseconds(),
		summary.SaveDir,
		summary.StartedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, fr := range results {
		resultJSON, err := json.Marshal(fr.Result)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize frame %d result: %w", fr.Meta.FrameIndex, err)
		}

		var capturedAt, cameraModel string
		if fr.Meta.Capture != nil {
			if !fr.Meta.Capture.Timestamp.IsZero() {
				capturedAt = fr.Meta.Capture.Timestamp.UTC().Format(time.RFC3339)
			}
			cameraModel = fr.Meta.Capture.CameraModel
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (run_id, frame_index, name, source_path, result_json, captured_at, camera_model)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			fr.Meta.FrameIndex,
			fr.Meta.Name(),
			fr.Meta.SourcePath,
			string(resultJSON),
			capturedAt,
			cameraModel,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert frame %d: %w", fr.Meta.FrameIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns all recorded runs, most recent first.
func (rdb *RunDB) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id, strategy, source, batch_size, total_frames, processed, dropped, duration_ms, save_dir, started_at
	FROM runs
	ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetRun retrieves one run and its frame records by ID. A missing run
// returns nil without error.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*RunRecord, []FrameRecord, error) {
	row := rdb.db.QueryRowContext(ctx, `
	SELECT id, strategy, source, batch_size, total_frames, processed, dropped, duration_ms, save_dir, started_at
	FROM runs
	WHERE id = ?
	`, id)

	rec, err := scanRunRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id, run_id, frame_index, name, source_path, result_json, captured_at, camera_model
	FROM frames
	WHERE run_id = ?
	ORDER BY frame_index
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRecord
	for rows.Next() {
		var fr FrameRecord
		var resultJSON, capturedAt string

		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.FrameIndex, &fr.Name,
			&fr.SourcePath, &resultJSON, &capturedAt, &fr.CameraModel); err != nil {
			return nil, nil, fmt.Errorf("failed to scan frame: %w", err)
		}

		if err := json.Unmarshal([]byte(resultJSON), &fr.Result); err != nil {
			return nil, nil, fmt.Errorf("failed to parse frame %d result: %w", fr.FrameIndex, err)
		}
		if capturedAt != "" {
			if ts, err := time.Parse(time.RFC3339, capturedAt); err == nil {
				fr.CapturedAt = ts
			}
		}

		frames = append(frames, fr)
	}

	return &rec, frames, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRunRecord reads one run row.
func scanRunRecord(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var durationMS int64
	var startedAt string

	err := row.Scan(&rec.ID, &rec.Strategy, &rec.Source, &rec.BatchSize,
		&rec.TotalFrames, &rec.Processed, &rec.Dropped, &durationMS,
		&rec.SaveDir, &startedAt)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.StartedAt = parseTimestamp(startedAt)
	return rec, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
