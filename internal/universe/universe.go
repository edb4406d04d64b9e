package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"SwingSentinel/internal/model"
)

// ErrEmptyUniverse is returned when a symbols file has no usable rows.
var ErrEmptyUniverse = errors.New("universe has no symbols")

// LoadCSV reads the scan universe from a symbols file. Row order is scan
// order and decides which symbols win the signal cap.
func LoadCSV(path string) ([]model.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	insts, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read universe %s: %w", path, err)
	}
	return insts, nil
}

// ReadCSV parses a header row with an instrument_key column and either a
// tradingsymbol or symbol column. Rows without a key are dropped.
func ReadCSV(r io.Reader) ([]model.Instrument, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyUniverse
	}
	if err != nil {
		return nil, err
	}
	cols := columns(header)
	keyCol, ok := cols["instrument_key"]
	if !ok {
		return nil, fmt.Errorf("missing instrument_key column")
	}
	symCol, ok := cols["tradingsymbol"]
	if !ok {
		symCol, ok = cols["symbol"]
	}
	if !ok {
		return nil, fmt.Errorf("missing tradingsymbol or symbol column")
	}

	var out []model.Instrument
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key := field(rec, keyCol)
		sym := strings.ToUpper(field(rec, symCol))
		if key == "" || seen[key] {
			continue
		}
		if sym == "" {
			sym = key
		}
		seen[key] = true
		out = append(out, model.Instrument{Symbol: sym, Key: key})
	}
	if len(out) == 0 {
		return nil, ErrEmptyUniverse
	}
	return out, nil
}

// WriteCSV writes instruments in the format ReadCSV accepts.
func WriteCSV(w io.Writer, insts []model.Instrument) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"tradingsymbol", "instrument_key"}); err != nil {
		return err
	}
	for _, in := range insts {
		if err := cw.Write([]string{in.Symbol, in.Key}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// numericKey matches broker keys that carry an exchange token, e.g. NSE_EQ|2885.
var numericKey = regexp.MustCompile(`^NSE_EQ\|\d+$`)

// masterEntry is one row of the broker's instrument master file.
type masterEntry struct {
	Segment        string `json:"segment"`
	InstrumentType string `json:"instrument_type"`
	InstrumentKey  string `json:"instrument_key"`
	TradingSymbol  string `json:"trading_symbol"`
}

// CleanReport lists the outcome of matching a symbol list against the master.
type CleanReport struct {
	Input   int
	Matched []model.Instrument
	Missing []string
}

// Clean replaces the keys of a symbol list with the cash-equity keys from the
// instrument master. Symbols not listed as NSE_EQ equities with a numeric key
// are reported as missing. Input order is kept.
func Clean(symbols []string, master io.Reader) (*CleanReport, error) {
	body, err := io.ReadAll(master)
	if err != nil {
		return nil, fmt.Errorf("read instrument master: %w", err)
	}
	var entries []masterEntry
	if err := sonic.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode instrument master: %w", err)
	}

	valid := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Segment != "NSE_EQ" || e.InstrumentType != "EQ" || !numericKey.MatchString(e.InstrumentKey) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(e.TradingSymbol))
		if _, dup := valid[sym]; !dup {
			valid[sym] = e.InstrumentKey
		}
	}

	rep := &CleanReport{Input: len(symbols)}
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if key, ok := valid[sym]; ok {
			rep.Matched = append(rep.Matched, model.Instrument{Symbol: sym, Key: key})
		} else {
			rep.Missing = append(rep.Missing, sym)
		}
	}
	return rep, nil
}

// ReadSymbols reads the symbol column of a list that may lack keys.
func ReadSymbols(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := columns(header)
	col, ok := cols["tradingsymbol"]
	if !ok {
		col, ok = cols["symbol"]
	}
	if !ok {
		return nil, fmt.Errorf("missing tradingsymbol or symbol column")
	}
	var out []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if s := field(rec, col); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
