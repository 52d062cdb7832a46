// Package eodhd provides a market data provider backed by the EODHD API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/models"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// eodBar is the raw EODHD end-of-day record.
type eodBar struct {
	Date   string      `json:"date"`
	Open   flexFloat64 `json:"open"`
	High   flexFloat64 `json:"high"`
	Low    flexFloat64 `json:"low"`
	Close  flexFloat64 `json:"close"`
	Volume flexFloat64 `json:"volume"`
}

// Client fetches historical data from EODHD and adapts it to
// MarketDataPoint series.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetHistoricalData fetches end-of-day bars for the trailing number of days
// and expands each bar into STOCK_PRICE and VOLUME data points. Order of
// the returned points is not guaranteed; consumers re-sort.
func (c *Client) GetHistoricalData(ctx context.Context, ticker string, days int) ([]models.MarketDataPoint, error) {
	if days <= 0 {
		days = 30
	}

	now := time.Now()
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("from", now.AddDate(0, 0, -days).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	symbol := models.NormalizeTicker(ticker)
	path := fmt.Sprintf("/eod/%s", symbol)

	var bars []eodBar
	if err := c.get(ctx, path, params, &bars); err != nil {
		return nil, common.WrapError(common.KindUpstream, err, "failed to fetch EOD data for %s", symbol)
	}

	points := make([]models.MarketDataPoint, 0, len(bars)*2)
	for _, bar := range bars {
		ts, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", symbol).Str("date", bar.Date).Msg("Skipping bar with unparsable date")
			continue
		}

		meta := models.PointMetadata{
			Reliability:   1.0,
			Freshness:     ts,
			SourceQuality: "official",
		}

		points = append(points, models.MarketDataPoint{
			Source:     models.SourceEODHD,
			Timestamp:  ts,
			Ticker:     symbol,
			DataType:   models.DataStockPrice,
			Value:      float64(bar.Close),
			Confidence: 1.0,
			Metadata:   meta,
		})
		points = append(points, models.MarketDataPoint{
			Source:     models.SourceEODHD,
			Timestamp:  ts,
			Ticker:     symbol,
			DataType:   models.DataVolume,
			Value:      float64(bar.Volume),
			Confidence: 1.0,
			Metadata:   meta,
		})
	}

	c.logger.Debug().Str("ticker", symbol).Int("points", len(points)).Msg("Historical data fetched")
	return points, nil
}

// Ensure Client implements MarketDataProvider
var _ interfaces.MarketDataProvider = (*Client)(nil)
