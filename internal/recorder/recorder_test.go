package recorder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleRun(id string, started time.Time, sigs ...model.Signal) *model.ScanResult {
	status := model.ScanEmpty
	if len(sigs) > 0 {
		status = model.ScanHasSignals
	}
	return &model.ScanResult{
		RunID:      id,
		Mode:       "live",
		Signals:    sigs,
		Scanned:    10,
		Skipped:    2,
		MaxSignals: 5,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Status:     status,
	}
}

func sampleSignal(sym string, entryDate time.Time) model.Signal {
	return model.Signal{
		Symbol:          sym,
		InstrumentKey:   "NSE_EQ|" + sym,
		Kind:            model.KindBreakout,
		EntryPrice:      111.756,
		StopLoss:        109.52088,
		Target:          116.22624,
		StopLossPercent: 2,
		RSIAtSignal:     55.555,
		SignalDate:      entryDate.AddDate(0, 0, -1),
		EntryDate:       entryDate,
	}
}

func TestSQLiteRecorder_Journal(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer rec.Close()

	_, err = rec.LastRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	live := sampleSignal("TCS", time.Time{})
	live.Kind = model.KindBounce
	live.SignalDate = day0
	first := sampleRun("01A", day0.Add(9*time.Hour), live)
	require.NoError(t, rec.RecordRun(first))
	require.NoError(t, rec.RecordTrades(first.RunID, first.Signals))

	second := sampleRun("01B", day0.Add(33*time.Hour))
	require.NoError(t, rec.RecordRun(second))

	last, err := rec.LastRun()
	require.NoError(t, err)
	assert.Equal(t, "01B", last.RunID)
	assert.Equal(t, model.ScanEmpty, last.Status)
	assert.Equal(t, 10, last.Scanned)
	assert.Equal(t, 2, last.Skipped)
	assert.True(t, last.StartedAt.Equal(second.StartedAt))

	got, err := rec.Trades("01A")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TCS", got[0].Symbol)
	assert.Equal(t, model.KindBounce, got[0].Kind)
	assert.Equal(t, day0, got[0].SignalDate)
	assert.True(t, got[0].EntryDate.IsZero())
	assert.InDelta(t, 109.52088, got[0].StopLoss, 1e-9)
}

func TestSQLiteRecorder_TradesKeepOrderAndReplace(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer rec.Close()

	sigs := []model.Signal{sampleSignal("ZEE", day0), sampleSignal("ABB", day0.AddDate(0, 0, 3))}
	require.NoError(t, rec.RecordTrades("01H", sigs))
	require.NoError(t, rec.RecordTrades("01H", sigs))

	got, err := rec.Trades("01H")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ZEE", got[0].Symbol)
	assert.Equal(t, day0.AddDate(0, 0, 3), got[1].EntryDate)
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	_, err := rec.LastRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	require.NoError(t, rec.RecordRun(sampleRun("01C", day0)))
	last, err := rec.LastRun()
	require.NoError(t, err)
	assert.Equal(t, "01C", last.RunID)
	assert.NoError(t, rec.RecordTrades("01C", nil))
	assert.NoError(t, rec.Close())
}

func TestWriteTradesCSV(t *testing.T) {
	sigs := []model.Signal{
		sampleSignal("TCS", day0.AddDate(0, 0, 5)),
		sampleSignal("INFY", day0.AddDate(0, 0, 9)),
		sampleSignal("TCS", day0.AddDate(0, 0, 1)),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, sigs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "symbol,instrument_key,kind,signal_date,entry_date,entry_price,stop_loss,target,stop_loss_percent,rsi", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "INFY,"))
	assert.Equal(t, "TCS,NSE_EQ|TCS,BREAKOUT,2024-03-01,2024-03-02,111.76,109.52,116.23,2.00,55.56", lines[2])
	assert.Contains(t, lines[3], "2024-03-06")
	assert.Equal(t, "TCS", sigs[0].Symbol, "input is not reordered")
}

func TestSaveTradesCSV_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	require.NoError(t, SaveTradesCSV(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "symbol,"))
}
