// Package models defines data structures for Pulse
package models

import (
	"strings"
	"time"
)

// DataSource identifies the provider that produced a data point.
type DataSource string

const (
	SourceEODHD  DataSource = "eodhd"
	SourceManual DataSource = "manual"
)

// DataType classifies the payload of a MarketDataPoint.
type DataType string

const (
	DataStockPrice      DataType = "STOCK_PRICE"
	DataVolume          DataType = "VOLUME"
	DataFinancialMetric DataType = "FINANCIAL_METRIC"
	DataSentimentScore  DataType = "SENTIMENT_SCORE"
	DataNewsItem        DataType = "NEWS_ITEM"
	DataFilingData      DataType = "FILING_DATA"
	DataTradeData       DataType = "TRADE_DATA"
)

// PointMetadata describes provenance and quality of a data point.
type PointMetadata struct {
	Reliability     float64   `json:"reliability"`             // 0-1
	Freshness       time.Time `json:"freshness,omitempty"`     // when the provider produced the value
	SourceQuality   string    `json:"source_quality,omitempty"`
	ProcessingFlags []string  `json:"processing_flags,omitempty"`
}

// MarketDataPoint is one observation for a ticker. Immutable once created;
// produced by a data provider and consumed read-only by the engine.
type MarketDataPoint struct {
	Source     DataSource    `json:"source"`
	Timestamp  time.Time     `json:"timestamp"`
	Ticker     string        `json:"ticker"`
	DataType   DataType      `json:"data_type"`
	Value      float64       `json:"value"`
	Confidence float64       `json:"confidence"` // 0-1
	Metadata   PointMetadata `json:"metadata"`
}

// EventType classifies a detected market event.
type EventType string

const (
	EventPriceJump           EventType = "PRICE_JUMP"
	EventVolumeSpike         EventType = "VOLUME_SPIKE"
	EventEarningsRelease     EventType = "EARNINGS_RELEASE"
	EventNewsBreak           EventType = "NEWS_BREAK"
	EventFilingSubmission    EventType = "FILING_SUBMISSION"
	EventInsiderTrade        EventType = "INSIDER_TRADE"
	EventInstitutionalChange EventType = "INSTITUTIONAL_CHANGE"
)

// Significance buckets event magnitude.
type Significance string

const (
	SignificanceLow      Significance = "low"
	SignificanceMedium   Significance = "medium"
	SignificanceHigh     Significance = "high"
	SignificanceCritical Significance = "critical"
)

// SignificanceForMagnitude maps a 0-100 magnitude onto its significance
// bucket. Significance is always derived this way, never set independently.
func SignificanceForMagnitude(magnitude float64) Significance {
	switch {
	case magnitude >= 80:
		return SignificanceCritical
	case magnitude >= 60:
		return SignificanceHigh
	case magnitude >= 40:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

// EventMetadata carries the market context captured when an event fired.
type EventMetadata struct {
	Sector          string  `json:"sector,omitempty"`
	MarketCapBucket string  `json:"market_cap_bucket,omitempty"`
	Volatility      float64 `json:"volatility,omitempty"`
	Volume          float64 `json:"volume,omitempty"`
	PriceChangePct  float64 `json:"price_change_pct,omitempty"`
	VolumeRatio     float64 `json:"volume_ratio,omitempty"`
}

// MarketEvent is a detected occurrence for a ticker. Append-only: never
// mutated after creation.
type MarketEvent struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"event_type"`
	Ticker        string            `json:"ticker"`
	Timestamp     time.Time         `json:"timestamp"` // timestamp of the triggering data point
	Magnitude     float64           `json:"magnitude"` // 0-100
	Significance  Significance      `json:"significance"`
	SourceData    []MarketDataPoint `json:"source_data,omitempty"`
	RelatedEvents []string          `json:"related_events"` // reserved for a future correlation pass
	Metadata      EventMetadata     `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NormalizeTicker upper-cases a ticker symbol. All grouping, storage, and
// comparison happens on the normalized form.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
