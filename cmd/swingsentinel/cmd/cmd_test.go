package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/universe"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "swingsentinel dev")
}

func TestUniverseClean(t *testing.T) {
	dir := t.TempDir()
	symbols := filepath.Join(dir, "stocks.csv")
	master := filepath.Join(dir, "NSE.json")
	out := filepath.Join(dir, "clean", "symbols.csv")
	require.NoError(t, os.WriteFile(symbols, []byte("tradingsymbol\nTCS\nFOO\n"), 0o644))
	require.NoError(t, os.WriteFile(master, []byte(`[
		{"segment":"NSE_EQ","instrument_type":"EQ","instrument_key":"NSE_EQ|11536","trading_symbol":"TCS"}
	]`), 0o644))

	text, err := run(t, "--config", filepath.Join(dir, "none.yaml"),
		"universe", "clean", "--symbols", symbols, "--master", master, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, text, "valid matches: 1")
	assert.Contains(t, text, "FOO")

	insts, err := universe.LoadCSV(out)
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, "NSE_EQ|11536", insts[0].Key)
}

func TestScan_RequiresValidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("data_source:\n  provider: kite\n"), 0o644))
	_, err := run(t, "--config", cfgFile, "scan", "--dry-run")
	assert.ErrorContains(t, err, "data_source.provider")
}
