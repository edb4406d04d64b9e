package collector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/model"
)

// CachedFetcher is a read-through SQLite cache in front of another Fetcher.
// Only ranges that end before the current day are cached; anything that may
// still change intraday goes straight to the source.
type CachedFetcher struct {
	src Fetcher
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewCachedFetcher opens (or creates) the cache database and runs migrations.
func NewCachedFetcher(dbPath string, src Fetcher) (*CachedFetcher, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open candle cache: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	c := &CachedFetcher{src: src, db: db, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate candle cache: %w", err)
	}
	logger.Info("candle cache opened: %s", dbPath)
	return c, nil
}

func (c *CachedFetcher) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cached_ranges (
			cache_key  TEXT NOT NULL,
			start_day  TEXT NOT NULL,
			end_day    TEXT NOT NULL,
			bars       INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (cache_key, start_day, end_day)
		)`,
		`CREATE TABLE IF NOT EXISTS cached_candles (
			cache_key TEXT NOT NULL,
			start_day TEXT NOT NULL,
			end_day   TEXT NOT NULL,
			day       TEXT NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    INTEGER,
			PRIMARY KEY (cache_key, start_day, end_day, day)
		)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *CachedFetcher) Name() string { return c.src.Name() + "+cache" }

// cacheKey makes an instrument key safe to store, e.g. NSE_EQ|INE1 -> upstox:NSE_EQ_INE1.
func (c *CachedFetcher) cacheKey(inst model.Instrument) string {
	key := inst.Key
	if key == "" {
		key = inst.Symbol
	}
	return c.src.Name() + ":" + strings.ReplaceAll(key, "|", "_")
}

func (c *CachedFetcher) FetchDailyCandles(ctx context.Context, inst model.Instrument, start, end time.Time) (model.Series, error) {
	sd, ed := start.Format("2006-01-02"), end.Format("2006-01-02")
	if ed >= c.now().Format("2006-01-02") {
		return c.src.FetchDailyCandles(ctx, inst, start, end)
	}

	key := c.cacheKey(inst)
	bars, hit, err := c.load(ctx, key, sd, ed)
	if err != nil {
		logger.Warn("candle cache read %s: %v", inst.Symbol, err)
	}
	if hit {
		logger.Debug("loaded cache for %s", inst.Key)
		return model.Series{Instrument: inst, Candles: bars, FetchedAt: c.now()}, nil
	}

	series, err := c.src.FetchDailyCandles(ctx, inst, start, end)
	if err != nil {
		return model.Series{}, err
	}
	if err := c.store(ctx, key, sd, ed, series.Candles); err != nil {
		logger.Warn("candle cache write %s: %v", inst.Symbol, err)
	} else {
		logger.Info("cached %d bars for %s", len(series.Candles), inst.Key)
	}
	return series, nil
}

func (c *CachedFetcher) load(ctx context.Context, key, sd, ed string) ([]model.Candle, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT bars FROM cached_ranges WHERE cache_key = ? AND start_day = ? AND end_day = ?`,
		key, sd, ed).Scan(&n)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT day, open, high, low, close, volume FROM cached_candles
		 WHERE cache_key = ? AND start_day = ? AND end_day = ? ORDER BY day`,
		key, sd, ed)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	bars := make([]model.Candle, 0, n)
	for rows.Next() {
		var day string
		var b model.Candle
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, err
		}
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, false, err
		}
		b.Time = t
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(bars) != n {
		return nil, false, fmt.Errorf("cache range %s has %d of %d bars", key, len(bars), n)
	}
	return bars, true, nil
}

func (c *CachedFetcher) store(ctx context.Context, key, sd, ed string, bars []model.Candle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cached_candles WHERE cache_key = ? AND start_day = ? AND end_day = ?`, key, sd, ed); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cached_candles
		(cache_key, start_day, end_day, day, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, key, sd, ed, b.Date().Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO cached_ranges
		(cache_key, start_day, end_day, bars, fetched_at) VALUES (?,?,?,?,?)`,
		key, sd, ed, len(bars), c.now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *CachedFetcher) Close() error {
	logger.Info("closing candle cache")
	return c.db.Close()
}
