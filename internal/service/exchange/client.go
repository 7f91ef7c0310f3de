package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"PivotScreener/internal/domain/models"
	drepo "PivotScreener/internal/domain/repository"
	"PivotScreener/internal/service/metrics"
	"PivotScreener/internal/service/ratelimit"
	xhttp "PivotScreener/pkg/http"
	applogger "PivotScreener/pkg/logger"
)

const (
	exchangeInfoPath = "/api/v3/exchangeInfo"
	klinesPath       = "/api/v3/klines"

	// codeInvalidSymbol is the Binance error code for an unknown market.
	codeInvalidSymbol = -1121
	limiterKey        = "binance"
)

// Client is a MarketData source backed by the Binance spot REST API.
type Client struct {
	baseURL    string
	http       *xhttp.Client
	limiter    *ratelimit.Limiter
	rateCap    float64
	rateRefill float64
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Exchange
	log        *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRateLimit sets the token bucket shared by all requests of this client.
func WithRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
		c.rateCap = capacity
		c.rateRefill = refillPerSec
	}
}

// WithRetry sets how many times a retryable failure is retried and the base
// backoff; attempt n sleeps n*backoff.
func WithRetry(max int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.backoff = backoff
	}
}

// WithMetrics sets exchange instrumentation.
func WithMetrics(m *metrics.Exchange) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for baseURL, e.g. https://api.binance.com.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       xhttp.NewClient(xhttp.WithTimeout(10*time.Second), xhttp.WithUserAgent("pivot-screener")),
		limiter:    ratelimit.New(),
		rateCap:    10,
		rateRefill: 5,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		metrics:    metrics.NewExchange(nil),
		log:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

// ListSymbols returns every trading market as "BASE/QUOTE", sorted.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	var body []byte
	if err := c.get(ctx, "exchange_info", exchangeInfoPath, nil, &body); err != nil {
		return nil, err
	}
	var info exchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode exchangeInfo: %w", err)
	}

	out := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		out = append(out, s.BaseAsset+"/"+s.QuoteAsset)
	}
	sort.Strings(out)
	return out, nil
}

// FetchBars returns the most recent limit bars of symbol, oldest first.
func (c *Client) FetchBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.BarSeries, error) {
	series := models.BarSeries{Symbol: symbol, Timeframe: tf}
	if !drepo.IsValidTimeframe(tf) {
		return series, fmt.Errorf("unsupported timeframe %q", tf)
	}
	market := MarketID(symbol)
	if market == "" {
		return series, fmt.Errorf("%w: %q", models.ErrUnknownSymbol, symbol)
	}

	query := map[string][]string{
		"symbol":   {market},
		"interval": {string(tf)},
		"limit":    {strconv.Itoa(limit)},
	}
	var body []byte
	if err := c.get(ctx, "klines", klinesPath, query, &body); err != nil {
		return series, err
	}
	bars, err := decodeKlines(body)
	if err != nil {
		return series, err
	}
	series.Bars = bars
	return series, nil
}

// MarketID converts "BTC/USDT" into the exchange market id "BTCUSDT".
func MarketID(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}

// decodeKlines parses rows of [openTime, open, high, low, close, volume, ...]
// where prices and volume are decimal strings.
func decodeKlines(body []byte) ([]models.Bar, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("decode klines: row %d has %d fields", i, len(row))
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("decode klines: row %d open time: %w", i, err)
		}
		var vals [5]float64
		for j := range vals {
			v, err := parseDecimal(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("decode klines: row %d field %d: %w", i, j+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, models.Bar{
			Timestamp: time.UnixMilli(openTime).UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return bars, nil
}

func parseDecimal(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var f float64
		if ferr := json.Unmarshal(raw, &f); ferr != nil {
			return 0, err
		}
		return f, nil
	}
	return strconv.ParseFloat(s, 64)
}

// get performs a throttled GET with bounded retries on rate limiting,
// upstream 5xx and transport failures.
func (c *Client) get(ctx context.Context, endpoint, path string, query map[string][]string, dest *[]byte) error {
	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx, limiterKey, c.rateCap, c.rateRefill); err != nil {
			return err
		}

		start := time.Now()
		err := c.http.GetJSON(ctx, url, query, dest)
		c.metrics.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}

		class, retryable, cerr := classify(ctx, err)
		c.metrics.Errors.WithLabelValues(endpoint, class).Inc()
		if !retryable || attempt >= c.maxRetries {
			return cerr
		}

		c.metrics.Retries.WithLabelValues(endpoint).Inc()
		wait := c.backoff * time.Duration(attempt+1)
		c.log.Warn("exchange.request retry",
			applogger.String("endpoint", endpoint),
			applogger.Int("attempt", attempt+1),
			applogger.Duration("backoff_ms", wait),
			applogger.Error(cerr),
		)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// classify maps a request failure to a domain error, a metrics class and
// whether the request may be retried.
func classify(ctx context.Context, err error) (string, bool, error) {
	if ctx.Err() != nil {
		return "canceled", false, ctx.Err()
	}
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return "transport", true, fmt.Errorf("%w: %v", models.ErrExchangeUnavailable, err)
	}
	switch {
	case se.StatusCode == 429 || se.StatusCode == 418:
		return "rate_limited", true, fmt.Errorf("%w: status %d", models.ErrRateLimited, se.StatusCode)
	case se.StatusCode >= 500:
		return "server", true, fmt.Errorf("%w: status %d", models.ErrExchangeUnavailable, se.StatusCode)
	}
	var ae apiError
	if json.Unmarshal(se.Body, &ae) == nil && ae.Code == codeInvalidSymbol {
		return "unknown_symbol", false, fmt.Errorf("%w: %s", models.ErrUnknownSymbol, ae.Msg)
	}
	return "client", false, fmt.Errorf("exchange rejected request: %w", se)
}
