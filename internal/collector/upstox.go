package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/model"
)

const DefaultUpstoxBaseURL = "https://api.upstox.com/v3/historical-candle"

// UpstoxFetcher implements Fetcher using the Upstox v3 historical candle API.
type UpstoxFetcher struct {
	BaseURL      string
	AccessToken  string
	Client       *http.Client
	Retries      int           // attempts per request on network errors
	Backoff      time.Duration // multiplied by the attempt number
	Delay        time.Duration // minimum spacing between requests
	IncludeToday bool          // append today's bar from the intraday endpoint

	mu   sync.Mutex
	last time.Time
}

// NewUpstoxFetcher creates a new fetcher with optional proxy support.
func NewUpstoxFetcher(baseURL, accessToken, proxyURL string, timeout time.Duration) *UpstoxFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultUpstoxBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &UpstoxFetcher{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AccessToken:  accessToken,
		Retries:      3,
		Backoff:      1500 * time.Millisecond,
		Delay:        150 * time.Millisecond,
		IncludeToday: true,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *UpstoxFetcher) Name() string { return "upstox" }

// upstoxResponse is the envelope of both the historical and intraday endpoints.
// Each candle is [timestamp, open, high, low, close, volume, open_interest].
type upstoxResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]interface{} `json:"candles"`
	} `json:"data"`
}

func (f *UpstoxFetcher) FetchDailyCandles(ctx context.Context, inst model.Instrument, start, end time.Time) (model.Series, error) {
	key := url.PathEscape(inst.Key)
	endpoint := fmt.Sprintf("%s/%s/days/1/%s/%s", f.BaseURL, key, end.Format("2006-01-02"), start.Format("2006-01-02"))
	bars, err := f.fetchBars(ctx, endpoint)
	if err != nil {
		return model.Series{}, fmt.Errorf("upstox history %s: %w", inst.Symbol, err)
	}

	if f.IncludeToday {
		today, err := f.fetchBars(ctx, fmt.Sprintf("%s/intraday/%s/days/1", f.BaseURL, key))
		if err != nil {
			logger.Warn("upstox intraday %s: %v", inst.Symbol, err)
		} else if len(today) > 0 {
			bars = append(bars, today[len(today)-1])
		}
	}

	bars = clip(bars, end)
	if len(bars) == 0 {
		return model.Series{}, fmt.Errorf("upstox %s: %w", inst.Symbol, ErrNoData)
	}
	logger.Debug("upstox %s: %d bars, last %s", inst.Symbol, len(bars), bars[len(bars)-1].Date().Format("2006-01-02"))
	return model.Series{Instrument: inst, Candles: bars, FetchedAt: time.Now()}, nil
}

func (f *UpstoxFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.Candle, error) {
	resp, err := f.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload upstoxResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	bars := make([]model.Candle, 0, len(payload.Data.Candles))
	for _, row := range payload.Data.Candles {
		bar, err := parseUpstoxCandle(row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseUpstoxCandle(row []interface{}) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("candle row has %d fields", len(row))
	}
	ts, ok := row[0].(string)
	if !ok {
		return model.Candle{}, fmt.Errorf("candle timestamp is %T", row[0])
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return model.Candle{}, fmt.Errorf("parse candle timestamp: %w", err)
	}
	// Keep the exchange-local calendar date regardless of offset.
	y, m, d := t.Date()
	return model.Candle{
		Time:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Open:   toFloat(row[1]),
		High:   toFloat(row[2]),
		Low:    toFloat(row[3]),
		Close:  toFloat(row[4]),
		Volume: int64(toFloat(row[5])),
	}, nil
}

// getWithRetry retries network failures with a linear backoff. HTTP error
// statuses are returned to the caller untouched.
func (f *UpstoxFetcher) getWithRetry(ctx context.Context, endpoint string) (*http.Response, error) {
	attempts := f.Retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := f.throttle(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if f.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+f.AccessToken)
		}
		resp, err := f.Client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Warn("network error (attempt %d/%d): %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.Backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// throttle spaces consecutive requests by at least Delay.
func (f *UpstoxFetcher) throttle(ctx context.Context) error {
	if f.Delay <= 0 {
		return nil
	}
	f.mu.Lock()
	wait := time.Until(f.last.Add(f.Delay))
	if wait < 0 {
		wait = 0
	}
	f.last = time.Now().Add(wait)
	f.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
