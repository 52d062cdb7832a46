// Package detector provides the rule-based market event detection engine.
package detector

import (
	"math"

	"github.com/bobmcallan/pulse/internal/models"
	"github.com/bobmcallan/pulse/internal/stats"
)

// RuleHit is the outcome of a rule firing on a ticker window.
type RuleHit struct {
	Type      models.EventType
	Magnitude float64                  // 0-100
	Triggers  []models.MarketDataPoint // points that caused the hit
	Metadata  models.EventMetadata
}

// Rule evaluates one detection condition over a chronological per-ticker
// window of data points. A nil hit with nil error means the rule did not
// fire; errors are isolated per rule by the engine.
type Rule interface {
	Name() string
	Evaluate(window []models.MarketDataPoint) (*RuleHit, error)
}

// trailingVolumeWindow is how many prior volume observations feed the
// volume-spike baseline.
const trailingVolumeWindow = 10

// PriceJumpRule fires when the percent change between the last two price
// observations meets the threshold.
type PriceJumpRule struct {
	Threshold float64 // percent
}

func (r *PriceJumpRule) Name() string { return "price_jump" }

func (r *PriceJumpRule) Evaluate(window []models.MarketDataPoint) (*RuleHit, error) {
	prices := pointsOf(window, models.DataStockPrice)
	if len(prices) < 2 {
		return nil, nil
	}

	prev := prices[len(prices)-2]
	last := prices[len(prices)-1]
	if prev.Value == 0 {
		return nil, nil
	}

	pct := (last.Value - prev.Value) / prev.Value * 100
	if math.Abs(pct) < r.Threshold {
		return nil, nil
	}

	meta := windowMetadata(window)
	meta.PriceChangePct = pct

	return &RuleHit{
		Type:      models.EventPriceJump,
		Magnitude: math.Min(100, math.Abs(pct)*2),
		Triggers:  []models.MarketDataPoint{prev, last},
		Metadata:  meta,
	}, nil
}

// VolumeSpikeRule fires when the latest volume observation reaches the
// threshold multiple of the trailing average.
type VolumeSpikeRule struct {
	Threshold float64 // multiple of trailing average
}

func (r *VolumeSpikeRule) Name() string { return "volume_spike" }

func (r *VolumeSpikeRule) Evaluate(window []models.MarketDataPoint) (*RuleHit, error) {
	volumes := pointsOf(window, models.DataVolume)
	if len(volumes) < 2 {
		return nil, nil
	}

	last := volumes[len(volumes)-1]
	trailing := volumes[:len(volumes)-1]
	if len(trailing) > trailingVolumeWindow {
		trailing = trailing[len(trailing)-trailingVolumeWindow:]
	}

	var sum float64
	for _, p := range trailing {
		sum += p.Value
	}
	avg := sum / float64(len(trailing))
	if avg == 0 {
		return nil, nil
	}

	ratio := last.Value / avg
	if ratio < r.Threshold {
		return nil, nil
	}

	meta := windowMetadata(window)
	meta.VolumeRatio = ratio

	return &RuleHit{
		Type:      models.EventVolumeSpike,
		Magnitude: math.Min(100, ratio*10),
		Triggers:  []models.MarketDataPoint{last},
		Metadata:  meta,
	}, nil
}

// windowMetadata re-analyzes the window for event context.
func windowMetadata(window []models.MarketDataPoint) models.EventMetadata {
	priceSeries := valuesOf(window, models.DataStockPrice)
	volumeSeries := valuesOf(window, models.DataVolume)

	meta := models.EventMetadata{
		Volatility: stats.AnnualizedVolatility(priceSeries),
	}
	if len(volumeSeries) > 0 {
		meta.Volume = volumeSeries[len(volumeSeries)-1]
	}
	return meta
}

func pointsOf(window []models.MarketDataPoint, dataType models.DataType) []models.MarketDataPoint {
	var out []models.MarketDataPoint
	for _, p := range window {
		if p.DataType == dataType {
			out = append(out, p)
		}
	}
	return out
}

func valuesOf(window []models.MarketDataPoint, dataType models.DataType) []float64 {
	var out []float64
	for _, p := range window {
		if p.DataType == dataType {
			out = append(out, p.Value)
		}
	}
	return out
}
