package analytics

import (
	"math"
	"sort"

	"github.com/bobmcallan/pulse/internal/models"
)

const topMoversLimit = 10

// buildMarketSummary aggregates detected events and per-ticker analyses
// into the cross-ticker market summary.
func buildMarketSummary(events []*models.MarketEvent, analyses []*models.TechnicalAnalysis) *models.MarketSummary {
	summary := &models.MarketSummary{
		TotalEvents:     len(events),
		MarketSentiment: "neutral",
		VolatilityLevel: "low",
	}

	var bullish, bearish int
	movers := make(map[string]float64)
	for _, ev := range events {
		if ev.Significance == models.SignificanceHigh || ev.Significance == models.SignificanceCritical {
			summary.SignificantEvents++
		}
		if ev.Type == models.EventPriceJump {
			if ev.Metadata.PriceChangePct > 0 {
				bullish++
			} else if ev.Metadata.PriceChangePct < 0 {
				bearish++
			}

			if best, ok := movers[ev.Ticker]; !ok || math.Abs(ev.Magnitude) > math.Abs(best) {
				movers[ev.Ticker] = ev.Magnitude
			}
		}
	}

	if float64(bullish) > 1.2*float64(bearish) {
		summary.MarketSentiment = "bullish"
	} else if float64(bearish) > 1.2*float64(bullish) {
		summary.MarketSentiment = "bearish"
	}

	for ticker, magnitude := range movers {
		summary.TopMovers = append(summary.TopMovers, models.TopMover{
			Ticker:    ticker,
			Magnitude: magnitude,
		})
	}
	sort.SliceStable(summary.TopMovers, func(i, j int) bool {
		a, b := summary.TopMovers[i], summary.TopMovers[j]
		if math.Abs(a.Magnitude) != math.Abs(b.Magnitude) {
			return math.Abs(a.Magnitude) > math.Abs(b.Magnitude)
		}
		return a.Ticker < b.Ticker
	})
	if len(summary.TopMovers) > topMoversLimit {
		summary.TopMovers = summary.TopMovers[:topMoversLimit]
	}

	summary.VolatilityLevel = volatilityLevel(analyses)
	return summary
}

// volatilityLevel buckets the mean annualized volatility across analyses.
func volatilityLevel(analyses []*models.TechnicalAnalysis) string {
	var sum float64
	var n int
	for _, ta := range analyses {
		if ta == nil || ta.Trend == nil {
			continue
		}
		sum += ta.Trend.Volatility
		n++
	}
	if n == 0 {
		return "low"
	}

	mean := sum / float64(n)
	switch {
	case mean < 15:
		return "low"
	case mean < 25:
		return "medium"
	case mean < 40:
		return "high"
	default:
		return "extreme"
	}
}
