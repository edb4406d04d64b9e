package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"SwingSentinel/internal/universe"
)

var (
	cleanSymbols string
	cleanMaster  string
	cleanOut     string
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Maintain the symbols file",
}

var universeCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Match a symbol list against the broker instrument master",
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := os.Open(cleanSymbols)
		if err != nil {
			return fmt.Errorf("open symbols: %w", err)
		}
		defer sf.Close()
		symbols, err := universe.ReadSymbols(sf)
		if err != nil {
			return fmt.Errorf("read symbols: %w", err)
		}

		mf, err := os.Open(cleanMaster)
		if err != nil {
			return fmt.Errorf("open instrument master: %w", err)
		}
		defer mf.Close()
		rep, err := universe.Clean(symbols, mf)
		if err != nil {
			return err
		}

		out := cleanOut
		if out == "" {
			out = cfg.Universe.CSVPath
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := universe.WriteCSV(f, rep.Matched); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "input stocks : %d\n", rep.Input)
		fmt.Fprintf(w, "valid matches: %d\n", len(rep.Matched))
		fmt.Fprintf(w, "saved        : %s\n", out)
		if len(rep.Missing) > 0 {
			fmt.Fprintf(w, "without a valid instrument key: %s\n", strings.Join(rep.Missing, ", "))
		}
		return nil
	},
}

func init() {
	universeCleanCmd.Flags().StringVar(&cleanSymbols, "symbols", "stocks_symbols.csv", "symbol list with a tradingsymbol column")
	universeCleanCmd.Flags().StringVar(&cleanMaster, "master", "NSE.json", "Upstox instrument master (JSON)")
	universeCleanCmd.Flags().StringVar(&cleanOut, "out", "", "output CSV, defaults to universe.csv_path")
	universeCmd.AddCommand(universeCleanCmd)
	rootCmd.AddCommand(universeCmd)
}
