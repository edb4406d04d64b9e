package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/scheduler"
	"SwingSentinel/internal/universe"
)

var (
	scanDebug   bool
	scanMax     int
	scanWorkers int
	scanDryRun  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one live scan and deliver the signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("debug") {
			cfg.Scan.Debug = scanDebug
		}
		if cmd.Flags().Changed("max") {
			cfg.Scan.MaxSignals = &scanMax
		}
		if cmd.Flags().Changed("workers") {
			cfg.Scan.Workers = scanWorkers
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}

		var sink notifier.Sink = notifier.LogSink{}
		if !scanDryRun {
			if err := cfg.ValidateTelegram(); err != nil {
				return fmt.Errorf("config validation: %w (use --dry-run to skip delivery)", err)
			}
			tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			if err != nil {
				return err
			}
			sink = tn
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader := func() ([]model.Instrument, error) { return universe.LoadCSV(cfg.Universe.CSVPath) }
		sched := scheduler.NewScheduler(ctx, a.newScanner(), loader, sink, a.recorder, cfg.SignalCap())
		sched.Metrics = a.metrics
		res, err := sched.RunNow(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d signals, %d scanned, %d skipped\n",
			res.RunID, len(res.Signals), res.Scanned, res.Skipped)
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanDebug, "debug", false, "use the lenient debug thresholds")
	scanCmd.Flags().IntVar(&scanMax, "max", 10, "maximum number of signals, 0 for no cap")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 1, "symbols evaluated in parallel")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "log signals instead of sending them")
	rootCmd.AddCommand(scanCmd)
}
