package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
	"SwingSentinel/internal/recorder"
)

const dateLayout = "2006-01-02"

// price renders a value rounded to two decimals, half away from zero.
func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func kindLabel(k model.SignalKind) string {
	switch k {
	case model.KindBounce:
		return "SMA44 bounce"
	case model.KindDoubleDip:
		return "double dip"
	case model.KindBreakout:
		return "breakout"
	default:
		return string(k)
	}
}

// FormatSignal formats one signal as a standalone caption.
func FormatSignal(sig model.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s (%s)\n", sig.Symbol, kindLabel(sig.Kind))
	fmt.Fprintf(&b, "Entry > %s\n", price(sig.EntryPrice))
	fmt.Fprintf(&b, "SL: %s (%s%%)\n", price(sig.StopLoss), price(sig.StopLossPercent))
	fmt.Fprintf(&b, "Target: %s\n", price(sig.Target))
	fmt.Fprintf(&b, "RSI: %s\n", price(sig.RSIAtSignal))
	fmt.Fprintf(&b, "Last Candle: %s", sig.SignalDate.Format(dateLayout))
	if !sig.EntryDate.IsZero() {
		fmt.Fprintf(&b, "\nEntry Date: %s", sig.EntryDate.Format(dateLayout))
	}
	return b.String()
}

// FormatNoSignals is the message sent when a scan ran and found nothing.
func FormatNoSignals(res *model.ScanResult) string {
	return fmt.Sprintf("📉 Scan Complete (%s): No signals found.", runDate(res))
}

// FormatScanSummary lists every signal of a run in one message.
func FormatScanSummary(res *model.ScanResult) string {
	if res.Empty() {
		return FormatNoSignals(res)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📢 SWING TRADE SIGNALS (%s)\n\n", runDate(res))
	for _, s := range res.Signals {
		fmt.Fprintf(&b, "🚀 %s\n", s.Symbol)
		fmt.Fprintf(&b, "   Entry > %s\n", price(s.EntryPrice))
		fmt.Fprintf(&b, "   SL: %s | Tgt: %s\n", price(s.StopLoss), price(s.Target))
		fmt.Fprintf(&b, "   RSI: %s\n\n", price(s.RSIAtSignal))
	}
	fmt.Fprintf(&b, "Scanned %d, skipped %d", res.Scanned, res.Skipped)
	if res.MaxSignals > 0 && len(res.Signals) >= res.MaxSignals {
		fmt.Fprintf(&b, ", stopped at cap of %d", res.MaxSignals)
	}
	return b.String()
}

// FormatRunStatus answers the /status command.
func FormatRunStatus(run *recorder.RunSummary, signals []model.Signal) string {
	if run == nil {
		return "No scan has run yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Last scan %s\n", run.RunID)
	fmt.Fprintf(&b, "Mode: %s | Status: %s\n", run.Mode, run.Status)
	fmt.Fprintf(&b, "Finished: %s (%s)\n", run.FinishedAt.Format("2006-01-02 15:04"),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "Signals: %d | Scanned: %d | Skipped: %d", run.Signals, run.Scanned, run.Skipped)
	for _, s := range signals {
		fmt.Fprintf(&b, "\n• %s entry > %s", s.Symbol, price(s.EntryPrice))
	}
	return b.String()
}

func runDate(res *model.ScanResult) string {
	t := res.FinishedAt
	if t.IsZero() {
		t = res.StartedAt
	}
	return t.Format(dateLayout)
}
