package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/logger"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "swingsentinel",
	Short: "Daily swing-trade scanner for SMA44 trend-continuation bounces",
	Long: `SwingSentinel scans a universe of NSE equities for green candles that
bounce off a rising 44-day moving average, then posts entry, stop and
target levels to Telegram.

  scan       run one live scan now
  backtest   list historical breakout trades to CSV
  serve      run scans on a schedule and answer chat commands
  universe   maintain the symbols file`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if err := logger.Init(c.Log.Level); err != nil {
			return err
		}
		logger.SetServiceName(cmd.Root().Name() + "-" + cmd.Name())
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", def, "config file")
}
