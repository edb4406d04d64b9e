package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

var tradeHeader = []string{
	"symbol", "instrument_key", "kind", "signal_date", "entry_date",
	"entry_price", "stop_loss", "target", "stop_loss_percent", "rsi",
}

// WriteTradesCSV writes historical signals sorted by symbol, then entry date.
// Prices are rounded to two decimals.
func WriteTradesCSV(w io.Writer, signals []model.Signal) error {
	sorted := make([]model.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, s := range sorted {
		entryDate := ""
		if !s.EntryDate.IsZero() {
			entryDate = s.EntryDate.Format(dateLayout)
		}
		rec := []string{
			s.Symbol, s.InstrumentKey, string(s.Kind), s.SignalDate.Format(dateLayout), entryDate,
			round2(s.EntryPrice), round2(s.StopLoss), round2(s.Target),
			round2(s.StopLossPercent), round2(s.RSIAtSignal),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTradesCSV writes the trades file, creating parent directories.
func SaveTradesCSV(path string, signals []model.Signal) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades csv: %w", err)
	}
	if err := WriteTradesCSV(f, signals); err != nil {
		f.Close()
		return fmt.Errorf("write trades csv: %w", err)
	}
	return f.Close()
}

func round2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
