package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/strategy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "upstox", cfg.DataSource.Provider)
	assert.Equal(t, 150, cfg.DataSource.HistoryDays)
	assert.True(t, *cfg.DataSource.IncludeToday)
	assert.Equal(t, 150*time.Millisecond, cfg.DataSource.RequestDelay)
	assert.Equal(t, 15*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 10, cfg.SignalCap())
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, 50, cfg.Scan.MinBars)
	assert.Equal(t, strategy.Production(), cfg.Classifier())
	assert.Equal(t, strategy.DefaultBreakout(), cfg.Breakout())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: yahoo
  request_delay: 250ms
  include_today: false
scan:
  max_signals: 3
  workers: 4
  thresholds:
    rsi_high: 65
    require_volume_filter: false
schedule:
  scan_cron: "0 0 16 * * 1-5"
`)
	t.Setenv("MAX_SIGNALS", "7")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("SCAN_CRON", "0 30 15 * * 1-5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.DataSource.RequestDelay)
	assert.False(t, *cfg.DataSource.IncludeToday)
	assert.Equal(t, 7, cfg.SignalCap(), "env wins over file")
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, "12345", cfg.Telegram.ChatID)
	assert.Equal(t, "0 30 15 * * 1-5", cfg.Schedule.ScanCron)

	cls := cfg.Classifier()
	assert.Equal(t, 65.0, cls.RSIHigh)
	assert.Equal(t, 38.0, cls.RSILow)
	assert.False(t, cls.RequireVolumeFilter)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadInput(t *testing.T) {
	_, err := Load(writeConfig(t, "scan: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("SCAN_DEBUG", "maybe")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "SCAN_DEBUG")
}

func TestLoad_ZeroCapMeansUncapped(t *testing.T) {
	t.Setenv("MAX_SIGNALS", "0")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.SignalCap())

	t.Setenv("MAX_SIGNALS", "")
	cfg, err = Load(writeConfig(t, "scan:\n  max_signals: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.SignalCap())
	cfg.DataSource.AccessToken = "tok"
	assert.NoError(t, cfg.Validate())
}

func TestMinHistoryDays(t *testing.T) {
	assert.Equal(t, 80, MinHistoryDays(50))
	assert.Equal(t, 10, MinHistoryDays(0))
}

func TestClassifier_DebugPreset(t *testing.T) {
	t.Setenv("SCAN_DEBUG", "true")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, strategy.Debug(), cfg.Classifier())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.DataSource.AccessToken = "tok"
		return cfg
	}
	assert.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"upstox without token", func(c *Config) { c.DataSource.AccessToken = "" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "kite" }},
		{"short history", func(c *Config) { c.DataSource.HistoryDays = 30 }},
		{"history in bars not days", func(c *Config) { c.DataSource.HistoryDays = 50 }},
		{"negative cap", func(c *Config) {
			n := -1
			c.Scan.MaxSignals = &n
		}},
		{"no workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"bad cron", func(c *Config) { c.Schedule.ScanCron = "every day" }},
		{"inverted rsi", func(c *Config) {
			lo := 70.0
			c.Scan.Thresholds.RSILow = &lo
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateTelegram(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateTelegram())
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.ChatID = "not-a-number"
	assert.Error(t, cfg.ValidateTelegram())
	cfg.Telegram.ChatID = "-100123"
	assert.NoError(t, cfg.ValidateTelegram())
}

func TestBacktestWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	cfg := &Config{}
	start, end, err := cfg.BacktestWindow(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), start)

	cfg.Backtest.StartDate = "2024-01-01"
	cfg.Backtest.EndDate = "2024-03-31"
	start, end, err = cfg.BacktestWindow(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", start.Format(dateLayout))
	assert.Equal(t, "2024-03-31", end.Format(dateLayout))

	cfg.Backtest.StartDate = "2024-05-01"
	_, _, err = cfg.BacktestWindow(now)
	assert.Error(t, err)
	cfg.Backtest.StartDate = "01/05/2024"
	_, _, err = cfg.BacktestWindow(now)
	assert.Error(t, err)
}
