package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SwingSentinel/internal/strategy"
)

const dateLayout = "2006-01-02"

// Thresholds overrides single fields of the classifier preset. Nil keeps the preset value.
type Thresholds struct {
	MinAngleDeg         *float64 `yaml:"min_angle_deg"`
	RSILow              *float64 `yaml:"rsi_low"`
	RSIHigh             *float64 `yaml:"rsi_high"`
	SupportTolerance    *float64 `yaml:"support_tolerance"`
	RequireVolumeFilter *bool    `yaml:"require_volume_filter"`
	Lookback            *int     `yaml:"lookback"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string        `yaml:"provider"` // upstox or yahoo
		BaseURL      string        `yaml:"base_url"` // empty uses the provider default
		AccessToken  string        `yaml:"access_token"`
		YahooSuffix  string        `yaml:"yahoo_suffix"`
		HistoryDays  int           `yaml:"history_days"`
		IncludeToday *bool         `yaml:"include_today"`
		RequestDelay time.Duration `yaml:"request_delay"`
		Retries      int           `yaml:"retries"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Universe struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"universe"`
	Scan struct {
		MaxSignals *int       `yaml:"max_signals"` // 0 means no cap
		Workers    int        `yaml:"workers"`
		MinBars    int        `yaml:"min_bars"`
		Debug      bool       `yaml:"debug"`
		RSIWilder  bool       `yaml:"rsi_wilder"`
		Thresholds Thresholds `yaml:"thresholds"`
	} `yaml:"scan"`
	Backtest struct {
		StartDate        string  `yaml:"start_date"`
		EndDate          string  `yaml:"end_date"`
		OutputCSV        string  `yaml:"output_csv"`
		SupportTolerance float64 `yaml:"support_tolerance"`
		MaxTouchDays     int     `yaml:"max_touch_days"`
		BreakoutBuffer   float64 `yaml:"breakout_buffer"`
	} `yaml:"backtest"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		CachePath  string `yaml:"cache_path"`
	} `yaml:"database"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML file, then applies environment overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN":  &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":    &c.Telegram.ChatID,
		"UPSTOX_ACCESS_TOKEN": &c.DataSource.AccessToken,
		"HTTPS_PROXY":         &c.Proxy,
		"SQLITE_PATH":         &c.Database.SQLitePath,
		"CANDLE_CACHE_PATH":   &c.Database.CachePath,
		"SCAN_CRON":           &c.Schedule.ScanCron,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("MAX_SIGNALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_SIGNALS: %w", err)
		}
		c.Scan.MaxSignals = &n
	}
	if v := os.Getenv("SCAN_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCAN_DEBUG: %w", err)
		}
		c.Scan.Debug = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	ds := &c.DataSource
	if ds.Provider == "" {
		ds.Provider = "upstox"
	}
	if ds.YahooSuffix == "" {
		ds.YahooSuffix = ".NS"
	}
	if ds.HistoryDays == 0 {
		ds.HistoryDays = 150
	}
	if ds.IncludeToday == nil {
		t := true
		ds.IncludeToday = &t
	}
	if ds.RequestDelay == 0 {
		ds.RequestDelay = 150 * time.Millisecond
	}
	if ds.Retries == 0 {
		ds.Retries = 3
	}
	if ds.Timeout == 0 {
		ds.Timeout = 15 * time.Second
	}
	if c.Universe.CSVPath == "" {
		c.Universe.CSVPath = "data/symbols_clean.csv"
	}
	if c.Scan.MaxSignals == nil {
		n := 10
		c.Scan.MaxSignals = &n
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 1
	}
	if c.Scan.MinBars == 0 {
		c.Scan.MinBars = 50
	}
	bt := &c.Backtest
	if bt.OutputCSV == "" {
		bt.OutputCSV = "data/swing_trades.csv"
	}
	if bt.SupportTolerance == 0 {
		bt.SupportTolerance = strategy.DefaultBreakout().SupportTolerance
	}
	if bt.MaxTouchDays == 0 {
		bt.MaxTouchDays = strategy.DefaultBreakout().MaxTouchDays
	}
	if bt.BreakoutBuffer == 0 {
		bt.BreakoutBuffer = strategy.DefaultBreakout().BreakoutBuffer
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 40 15 * * 1-5" // weekdays after the NSE close
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/swing_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks everything a scan needs. Telegram credentials are checked
// separately because dry runs do not need them.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "upstox":
		if c.DataSource.AccessToken == "" {
			return fmt.Errorf("data_source.access_token is required for upstox")
		}
	case "yahoo":
	default:
		return fmt.Errorf("data_source.provider must be upstox or yahoo, got %q", c.DataSource.Provider)
	}
	if need := MinHistoryDays(c.Scan.MinBars); c.DataSource.HistoryDays < need {
		return fmt.Errorf("data_source.history_days (%d) must be at least %d calendar days to hold scan.min_bars (%d) trading bars",
			c.DataSource.HistoryDays, need, c.Scan.MinBars)
	}
	if c.SignalCap() < 0 {
		return fmt.Errorf("scan.max_signals must not be negative")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if err := c.Classifier().Validate(); err != nil {
		return fmt.Errorf("scan.thresholds: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.ScanCron); err != nil {
		return fmt.Errorf("schedule.scan_cron: %w", err)
	}
	return nil
}

// MinHistoryDays converts a trading-bar count into the calendar days needed
// to fetch it: five sessions a week plus room for exchange holidays.
func MinHistoryDays(bars int) int {
	return bars*7/5 + holidayAllowance
}

const holidayAllowance = 10

// SignalCap is the live-scan signal cap. 0 means no cap.
func (c *Config) SignalCap() int {
	if c.Scan.MaxSignals == nil {
		return 0
	}
	return *c.Scan.MaxSignals
}

// ValidateTelegram checks the credentials needed to deliver messages.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64); err != nil {
		return fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	return nil
}

// cronParser matches the scheduler's seconds-first cron format.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Classifier returns the preset selected by scan.debug with overrides applied.
func (c *Config) Classifier() strategy.Config {
	cfg := strategy.Production()
	if c.Scan.Debug {
		cfg = strategy.Debug()
	}
	t := c.Scan.Thresholds
	if t.MinAngleDeg != nil {
		cfg.MinAngleDeg = *t.MinAngleDeg
	}
	if t.RSILow != nil {
		cfg.RSILow = *t.RSILow
	}
	if t.RSIHigh != nil {
		cfg.RSIHigh = *t.RSIHigh
	}
	if t.SupportTolerance != nil {
		cfg.SupportTolerance = *t.SupportTolerance
	}
	if t.RequireVolumeFilter != nil {
		cfg.RequireVolumeFilter = *t.RequireVolumeFilter
	}
	if t.Lookback != nil {
		cfg.Lookback = *t.Lookback
	}
	return cfg
}

// Breakout returns the thresholds of the historical scan.
func (c *Config) Breakout() strategy.BreakoutConfig {
	cfg := strategy.DefaultBreakout()
	cfg.SupportTolerance = c.Backtest.SupportTolerance
	cfg.MaxTouchDays = c.Backtest.MaxTouchDays
	cfg.BreakoutBuffer = c.Backtest.BreakoutBuffer
	return cfg
}

// BacktestWindow parses the historical window. A missing end means today and
// a missing start means one year before the end.
func (c *Config) BacktestWindow(now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if c.Backtest.EndDate != "" {
		t, err := time.Parse(dateLayout, c.Backtest.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.end_date: %w", err)
		}
		end = t
	}
	start := end.AddDate(-1, 0, 0)
	if c.Backtest.StartDate != "" {
		t, err := time.Parse(dateLayout, c.Backtest.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.start_date: %w", err)
		}
		start = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest window ends before it starts")
	}
	return start, end, nil
}
