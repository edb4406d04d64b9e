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
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/scheduler"
	"SwingSentinel/internal/universe"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled scan and answer Telegram commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if err := cfg.ValidateTelegram(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if os.Getenv("RUN_ON_START") == "true" {
			runOnStart = true
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader := func() ([]model.Instrument, error) { return universe.LoadCSV(cfg.Universe.CSVPath) }
		sched := scheduler.NewScheduler(ctx, a.newScanner(), loader, tn, a.recorder, cfg.SignalCap())
		sched.Metrics = a.metrics
		sched.Health = metrics.NewHealth()
		if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Metrics.ListenAddr != "" {
			srv := metrics.NewServer(cfg.Metrics.ListenAddr, a.registry, sched.Health)
			srv.Start()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Stop(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown: %v", err)
				}
			}()
		}

		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")

		if runOnStart {
			logger.Info("run on start enabled, executing scan now")
			go sched.HandleCommand(ctx, "/scan")
		}

		logger.Info("SwingSentinel is running, scan cron %q. Press Ctrl+C to stop.", cfg.Schedule.ScanCron)
		<-ctx.Done()
		logger.Info("shutdown signal received, stopping...")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run a scan immediately after start")
	rootCmd.AddCommand(serveCmd)
}
