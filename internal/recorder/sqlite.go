package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// SQLiteRecorder persists scan runs and classifications to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			total       INTEGER,
			green       INTEGER,
			yellow      INTEGER,
			red         INTEGER,
			errors      INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS classifications (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL REFERENCES scan_runs(id),
			ticker       TEXT NOT NULL,
			status       TEXT NOT NULL,
			price        REAL,
			note         TEXT,
			rsi          REAL,
			high_water   REAL,
			swing_low    REAL,
			retracement  REAL,
			near_support INTEGER,
			divergence   INTEGER,
			snapshot     TEXT,
			as_of        INTEGER,
			recorded_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_class_ticker ON classifications(ticker, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_class_run ON classifications(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores the run and every result in one transaction.
func (r *SQLiteRecorder) RecordScan(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = NewRunID(run.StartedAt)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO scan_runs
		(id, started_at, finished_at, total, green, yellow, red, errors)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), len(run.Results),
		run.Count(model.StatusGreen), run.Count(model.StatusYellow),
		run.Count(model.StatusRed), run.Count(model.StatusError),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO classifications
		(run_id, ticker, status, price, note, rsi, high_water, swing_low, retracement,
		 near_support, divergence, snapshot, as_of, recorded_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	recorded := run.FinishedAt.UnixMilli()
	for _, res := range run.Results {
		snap, err := json.Marshal(res.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot %s: %w", res.Ticker, err)
		}
		var swing, level sql.NullFloat64
		if res.Snapshot.SwingLow != nil {
			swing = sql.NullFloat64{Float64: res.Snapshot.SwingLow.Price, Valid: true}
		}
		if res.Snapshot.Retracement.Applicable {
			level = sql.NullFloat64{Float64: res.Snapshot.Retracement.Level, Valid: true}
		}
		var asOf sql.NullInt64
		if !res.AsOf.IsZero() {
			asOf = sql.NullInt64{Int64: res.AsOf.Unix(), Valid: true}
		}
		_, err = stmt.Exec(run.ID, res.Ticker, string(res.Status), res.Price, res.Note,
			nullReading(res.Snapshot.RSI), nullReading(res.Snapshot.HighWater), swing, level,
			res.Snapshot.Retracement.NearSupport, res.Snapshot.Divergence.Positive,
			string(snap), asOf, recorded)
		if err != nil {
			return fmt.Errorf("insert %s: %w", res.Ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", run.ID).Int("results", len(run.Results)).Msg("scan recorded")
	return nil
}

func (r *SQLiteRecorder) History(ticker string, limit int) ([]model.TrafficLightResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT ticker, status, price, note, snapshot, as_of
		FROM classifications WHERE ticker = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []model.TrafficLightResult
	for rows.Next() {
		var (
			res    model.TrafficLightResult
			status string
			snap   sql.NullString
			asOf   sql.NullInt64
		)
		if err := rows.Scan(&res.Ticker, &status, &res.Price, &res.Note, &snap, &asOf); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res.Status = model.Status(status)
		res.Emoji = res.Status.Emoji()
		if asOf.Valid {
			res.AsOf = time.Unix(asOf.Int64, 0).UTC()
		}
		if snap.Valid && snap.String != "" {
			if err := json.Unmarshal([]byte(snap.String), &res.Snapshot); err != nil {
				return nil, fmt.Errorf("decode snapshot: %w", err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func nullReading(v model.Reading) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Value, Valid: v.Valid}
}
