package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"SwingSentinel/internal/model"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Suffix  string // appended to trading symbols, e.g. ".NS" for NSE listings
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(suffix, proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Suffix:  suffix,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(inst model.Instrument) string {
	return inst.Symbol + f.Suffix
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchDailyCandles(ctx context.Context, inst model.Instrument, start, end time.Time) (model.Series, error) {
	// period2 is exclusive, so ask for the whole end day.
	u := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(inst)), start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Series{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Series{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Series{}, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Series{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := sonic.Unmarshal(body, &chart); err != nil {
		return model.Series{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return model.Series{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", inst.Symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		var vol float64
		if i < len(quote.Volume) {
			vol = toFloat(quote.Volume[i])
		}
		y, m, d := time.Unix(ts, 0).UTC().Date()
		bars = append(bars, model.Candle{
			Time:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(vol),
		})
	}

	bars = clip(bars, end)
	if len(bars) == 0 {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", inst.Symbol, ErrNoData)
	}
	return model.Series{Instrument: inst, Candles: bars, FetchedAt: time.Now()}, nil
}
