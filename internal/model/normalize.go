package model

import "sort"

// NormalizeCandles sorts bars by date and keeps one bar per calendar day.
// When two bars share a date the one appearing later in the input wins, so an
// intraday bar appended after history replaces a stale daily bar.
func NormalizeCandles(bars []Candle) []Candle {
	if len(bars) == 0 {
		return nil
	}
	byDate := make(map[int64]int, len(bars))
	out := make([]Candle, 0, len(bars))
	for _, b := range bars {
		k := b.Date().Unix()
		if i, ok := byDate[k]; ok {
			out[i] = b
			continue
		}
		byDate[k] = len(out)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
