package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder journals scan runs and signals to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so reports can read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id      TEXT PRIMARY KEY,
			mode        TEXT NOT NULL,
			status      TEXT NOT NULL,
			signals     INTEGER NOT NULL,
			scanned     INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			max_signals INTEGER NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			seq               INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			instrument_key    TEXT,
			kind              TEXT NOT NULL,
			entry_price       REAL,
			stop_loss         REAL,
			target            REAL,
			stop_loss_percent REAL,
			rsi               REAL,
			signal_date       TEXT NOT NULL,
			entry_date        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol, signal_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(res *model.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := summarize(res)
	_, err := r.db.Exec(`INSERT OR REPLACE INTO scan_runs
		(run_id, mode, status, signals, scanned, skipped, max_signals, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		s.RunID, s.Mode, string(s.Status), s.Signals, s.Scanned, s.Skipped, s.MaxSignals,
		s.StartedAt.UnixMilli(), s.FinishedAt.UnixMilli(),
	)
	return err
}

// RecordTrades stores the signals of a run in order, replacing any earlier
// rows of the same run.
func (r *SQLiteRecorder) RecordTrades(runID string, signals []model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM signals WHERE run_id = ?`, runID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO signals
		(run_id, seq, symbol, instrument_key, kind, entry_price, stop_loss, target,
		 stop_loss_percent, rsi, signal_date, entry_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sig := range signals {
		var entryDate sql.NullString
		if !sig.EntryDate.IsZero() {
			entryDate = sql.NullString{String: sig.EntryDate.Format(dateLayout), Valid: true}
		}
		if _, err := stmt.Exec(runID, i, sig.Symbol, sig.InstrumentKey, string(sig.Kind),
			sig.EntryPrice, sig.StopLoss, sig.Target, sig.StopLossPercent, sig.RSIAtSignal,
			sig.SignalDate.Format(dateLayout), entryDate); err != nil {
			return fmt.Errorf("insert signal %s: %w", sig.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LastRun() (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s RunSummary
	var status string
	var started, finished int64
	err := r.db.QueryRow(`SELECT run_id, mode, status, signals, scanned, skipped, max_signals,
		started_at, finished_at FROM scan_runs ORDER BY started_at DESC, run_id DESC LIMIT 1`).
		Scan(&s.RunID, &s.Mode, &status, &s.Signals, &s.Scanned, &s.Skipped, &s.MaxSignals, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, err
	}
	s.Status = model.ScanStatus(status)
	s.StartedAt = time.UnixMilli(started)
	s.FinishedAt = time.UnixMilli(finished)
	return &s, nil
}

func (r *SQLiteRecorder) Trades(runID string) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT symbol, instrument_key, kind, entry_price, stop_loss, target,
		stop_loss_percent, rsi, signal_date, entry_date FROM signals WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		var kind, signalDate string
		var key, entryDate sql.NullString
		if err := rows.Scan(&sig.Symbol, &key, &kind, &sig.EntryPrice, &sig.StopLoss, &sig.Target,
			&sig.StopLossPercent, &sig.RSIAtSignal, &signalDate, &entryDate); err != nil {
			return nil, err
		}
		sig.InstrumentKey = key.String
		sig.Kind = model.SignalKind(kind)
		if sig.SignalDate, err = time.Parse(dateLayout, signalDate); err != nil {
			return nil, err
		}
		if entryDate.Valid {
			if sig.EntryDate, err = time.Parse(dateLayout, entryDate.String); err != nil {
				return nil, err
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
