package universe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

func TestReadCSV_OrderAndColumns(t *testing.T) {
	in := "exchange_token,tradingsymbol,instrument_key\n" +
		"2885,reliance,NSE_EQ|2885\n" +
		"11536,TCS,NSE_EQ|11536\n" +
		"0,NOKEY,\n" +
		"2885,RELIANCE,NSE_EQ|2885\n" +
		"1594,INFY,NSE_EQ|1594\n"
	insts, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []model.Instrument{
		{Symbol: "RELIANCE", Key: "NSE_EQ|2885"},
		{Symbol: "TCS", Key: "NSE_EQ|11536"},
		{Symbol: "INFY", Key: "NSE_EQ|1594"},
	}, insts)
}

func TestReadCSV_SymbolFallback(t *testing.T) {
	insts, err := ReadCSV(strings.NewReader("symbol,instrument_key\nHDFCBANK,NSE_EQ|1333\n"))
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, "HDFCBANK", insts[0].Symbol)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyUniverse)
	_, err = ReadCSV(strings.NewReader("tradingsymbol\nTCS\n"))
	assert.ErrorContains(t, err, "instrument_key")
	_, err = ReadCSV(strings.NewReader("name,instrument_key\nTCS,NSE_EQ|1\n"))
	assert.ErrorContains(t, err, "symbol")
	_, err = ReadCSV(strings.NewReader("tradingsymbol,instrument_key\n"))
	assert.ErrorIs(t, err, ErrEmptyUniverse)
}

func TestLoadCSV_RoundTrip(t *testing.T) {
	want := []model.Instrument{{Symbol: "TCS", Key: "NSE_EQ|11536"}, {Symbol: "INFY", Key: "NSE_EQ|1594"}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, want))

	path := filepath.Join(t.TempDir(), "symbols.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

const master = `[
	{"segment":"NSE_EQ","instrument_type":"EQ","instrument_key":"NSE_EQ|2885","trading_symbol":"RELIANCE"},
	{"segment":"NSE_EQ","instrument_type":"EQ","instrument_key":"NSE_EQ|INE467B01029","trading_symbol":"TCS"},
	{"segment":"NSE_EQ","instrument_type":"EQ","instrument_key":"NSE_EQ|11536","trading_symbol":"TCS"},
	{"segment":"NSE_FO","instrument_type":"FUT","instrument_key":"NSE_FO|35001","trading_symbol":"INFY"},
	{"segment":"NSE_EQ","instrument_type":"BE","instrument_key":"NSE_EQ|9999","trading_symbol":"WIPRO"}
]`

func TestClean(t *testing.T) {
	syms, err := ReadSymbols(strings.NewReader("tradingsymbol\n tcs \nINFY\nRELIANCE\nWIPRO\n"))
	require.NoError(t, err)

	rep, err := Clean(syms, strings.NewReader(master))
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Input)
	assert.Equal(t, []model.Instrument{
		{Symbol: "TCS", Key: "NSE_EQ|11536"},
		{Symbol: "RELIANCE", Key: "NSE_EQ|2885"},
	}, rep.Matched)
	assert.Equal(t, []string{"INFY", "WIPRO"}, rep.Missing)

	_, err = Clean(syms, strings.NewReader("{not json"))
	assert.Error(t, err)
}
