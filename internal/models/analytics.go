package models

import "time"

// TechnicalIndicators bundles the standard indicator set for a price series.
type TechnicalIndicators struct {
	SMA20           float64 `json:"sma_20"`
	SMA50           float64 `json:"sma_50"`
	RSI14           float64 `json:"rsi_14"`
	BollingerUpper  float64 `json:"bollinger_upper"`
	BollingerMiddle float64 `json:"bollinger_middle"`
	BollingerLower  float64 `json:"bollinger_lower"`
	MACD            float64 `json:"macd"`
	MACDSignal      float64 `json:"macd_signal"`
	MACDHistogram   float64 `json:"macd_histogram"`
}

// TrendAnalysis describes direction and strength of a price trend.
type TrendAnalysis struct {
	Direction  string  `json:"direction"` // upward, downward, sideways
	Strength   float64 `json:"strength"`  // 0-100
	Slope      float64 `json:"slope"`
	Volatility float64 `json:"volatility"` // annualized, percent
	Momentum   float64 `json:"momentum"`   // 10-period percent change
}

// Anomaly is one fired anomaly sub-detector result.
type Anomaly struct {
	Type        string  `json:"type"` // price, volume, volatility
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// SupportResistance holds clustered local extrema interpreted as likely
// reversal levels.
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// RegimeClassification is a qualitative market-state call.
type RegimeClassification struct {
	Regime          string   `json:"regime"` // bull, bear, sideways, volatile
	Confidence      float64  `json:"confidence"`
	Characteristics []string `json:"characteristics"`
}

// TechnicalAnalysis is the full analyzer report for one ticker.
type TechnicalAnalysis struct {
	Ticker     string                `json:"ticker"`
	Indicators *TechnicalIndicators  `json:"indicators,omitempty"`
	Trend      *TrendAnalysis        `json:"trend,omitempty"`
	Anomalies  []Anomaly             `json:"anomalies,omitempty"`
	Levels     *SupportResistance    `json:"levels,omitempty"`
	Regime     *RegimeClassification `json:"regime,omitempty"`
}

// TopMover ranks a ticker by its strongest price-jump event.
type TopMover struct {
	Ticker    string  `json:"ticker"`
	Magnitude float64 `json:"magnitude"`
}

// MarketSummary aggregates detection results across tickers.
type MarketSummary struct {
	TotalEvents       int        `json:"total_events"`
	SignificantEvents int        `json:"significant_events"` // high + critical
	TopMovers         []TopMover `json:"top_movers,omitempty"`
	MarketSentiment   string     `json:"market_sentiment"` // bullish, bearish, neutral
	VolatilityLevel   string     `json:"volatility_level"` // low, medium, high, extreme
}

// ProcessingMetadata records timing and input sizes for one analysis run.
type ProcessingMetadata struct {
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
	DataPoints       int           `json:"data_points"`
	TickersProcessed int           `json:"tickers_processed"`
}

// AnalyticsResult is the ephemeral aggregate returned per request.
// It is never persisted.
type AnalyticsResult struct {
	Events            []*MarketEvent                `json:"events"`
	TechnicalAnalysis map[string]*TechnicalAnalysis `json:"technical_analysis,omitempty"`
	MarketSummary     *MarketSummary                `json:"market_summary,omitempty"`
	Processing        ProcessingMetadata            `json:"processing_metadata"`
}
