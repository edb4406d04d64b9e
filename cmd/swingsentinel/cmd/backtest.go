package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/universe"
)

var (
	btStart string
	btEnd   string
	btOut   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Find historical breakout-entry trades and write them to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if btStart != "" {
			cfg.Backtest.StartDate = btStart
		}
		if btEnd != "" {
			cfg.Backtest.EndDate = btEnd
		}
		if btOut != "" {
			cfg.Backtest.OutputCSV = btOut
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		start, end, err := cfg.BacktestWindow(time.Now())
		if err != nil {
			return err
		}

		insts, err := universe.LoadCSV(cfg.Universe.CSVPath)
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := a.newScanner().RunHistorical(ctx, insts, start, end, cfg.Breakout())
		if err != nil {
			return err
		}
		if err := a.recorder.RecordRun(res); err != nil {
			logger.Error("record run %s: %v", res.RunID, err)
		}
		if err := a.recorder.RecordTrades(res.RunID, res.Signals); err != nil {
			logger.Error("record trades %s: %v", res.RunID, err)
		}

		if res.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "no trades found")
			return nil
		}
		if err := recorder.SaveTradesCSV(cfg.Backtest.OutputCSV, res.Signals); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d trades from %d symbols to %s\n",
			len(res.Signals), res.Scanned, cfg.Backtest.OutputCSV)
		return nil
	},
}

func init() {
	backtestCmd.Flags().StringVar(&btStart, "start", "", "first signal date, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "last date, YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&btOut, "out", "", "output CSV path")
	rootCmd.AddCommand(backtestCmd)
}
