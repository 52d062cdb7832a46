// Package analyzer composes statistics into higher-level market analyses:
// trend, anomalies, support/resistance, and regime classification.
package analyzer

import (
	"fmt"
	"math"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/models"
	"github.com/bobmcallan/pulse/internal/stats"
)

// Analysis windows and thresholds.
const (
	MinIndicatorPoints = 50
	DefaultTrendWindow = 20
	DefaultLookback    = 30
	DefaultSensitivity = 0.02

	sidewaysSlopeEpsilon = 0.001
	priceZScoreThreshold = 3.0
	volumeRatioThreshold = 3.0
	volRatioThreshold    = 2.0
)

// ErrInsufficientData is returned when a series is below the minimum window
// for an analysis. Callers usually treat it as "no result", not a failure.
var ErrInsufficientData = common.NewError(common.KindInsufficientData, "insufficient data points")

// Analyzer runs statistical analyses over market data series.
type Analyzer struct{}

// New creates a new analyzer
func New() *Analyzer {
	return &Analyzer{}
}

// TechnicalIndicators bundles SMA20, SMA50, RSI14, Bollinger(20,2), and MACD
// for a price series. Returns nil for series shorter than 50 points.
func (a *Analyzer) TechnicalIndicators(prices []float64) *models.TechnicalIndicators {
	if len(prices) < MinIndicatorPoints {
		return nil
	}

	bands := stats.BollingerBands(prices, 20, 2)
	macd := stats.MACD(prices)

	return &models.TechnicalIndicators{
		SMA20:           stats.SMA(prices, 20),
		SMA50:           stats.SMA(prices, 50),
		RSI14:           stats.RSI(prices, 14),
		BollingerUpper:  bands.Upper,
		BollingerMiddle: bands.Middle,
		BollingerLower:  bands.Lower,
		MACD:            macd.Line,
		MACDSignal:      macd.Signal,
		MACDHistogram:   macd.Histogram,
	}
}

// AnalyzeTrend determines trend direction and strength over the trailing
// window. Fails with an insufficient-data error when the series is shorter
// than the window.
func (a *Analyzer) AnalyzeTrend(prices []float64, window int) (*models.TrendAnalysis, error) {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(prices) < window {
		return nil, common.WrapError(common.KindInsufficientData, ErrInsufficientData,
			"trend analysis needs %d points, have %d", window, len(prices))
	}

	recent := prices[len(prices)-window:]
	slope := stats.LinearRegressionSlope(recent)

	direction := "sideways"
	if math.Abs(slope) >= sidewaysSlopeEpsilon {
		if slope > 0 {
			direction = "upward"
		} else {
			direction = "downward"
		}
	}

	var momentum float64
	if len(prices) > 10 {
		past := prices[len(prices)-11]
		if past != 0 {
			momentum = (prices[len(prices)-1] - past) / past * 100
		}
	}

	return &models.TrendAnalysis{
		Direction:  direction,
		Strength:   math.Min(100, math.Abs(slope)*1000),
		Slope:      slope,
		Volatility: stats.AnnualizedVolatility(recent),
		Momentum:   momentum,
	}, nil
}

// DetectAnomalies runs the price, volume, and volatility sub-detectors over
// a chronological point series. Sub-detectors without enough history, or
// that do not trigger, contribute nothing to the result.
func (a *Analyzer) DetectAnomalies(points []models.MarketDataPoint, lookback int) []models.Anomaly {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	prices := seriesOf(points, models.DataStockPrice)
	volumes := seriesOf(points, models.DataVolume)

	var anomalies []models.Anomaly

	if anom := detectPriceAnomaly(prices, lookback); anom != nil {
		anomalies = append(anomalies, *anom)
	}
	if anom := detectVolumeAnomaly(volumes, lookback); anom != nil {
		anomalies = append(anomalies, *anom)
	}
	if anom := detectVolatilityAnomaly(prices, lookback); anom != nil {
		anomalies = append(anomalies, *anom)
	}

	return anomalies
}

func detectPriceAnomaly(prices []float64, lookback int) *models.Anomaly {
	if len(prices) < lookback+1 {
		return nil
	}

	latest := prices[len(prices)-1]
	trailing := prices[len(prices)-1-lookback : len(prices)-1]

	sd := stats.StdDev(trailing)
	if sd == 0 {
		return nil
	}

	z := math.Abs(latest-stats.Mean(trailing)) / sd
	if z <= priceZScoreThreshold {
		return nil
	}

	return &models.Anomaly{
		Type:        "price",
		Score:       math.Min(100, z*20),
		Confidence:  math.Min(1, z/priceZScoreThreshold),
		Description: fmt.Sprintf("price %.2f deviates %.1f standard deviations from %d-period mean", latest, z, lookback),
	}
}

func detectVolumeAnomaly(volumes []float64, lookback int) *models.Anomaly {
	if len(volumes) < lookback+1 {
		return nil
	}

	latest := volumes[len(volumes)-1]
	avg := stats.Mean(volumes[len(volumes)-1-lookback : len(volumes)-1])
	if avg == 0 {
		return nil
	}

	ratio := latest / avg
	if ratio <= volumeRatioThreshold {
		return nil
	}

	return &models.Anomaly{
		Type:        "volume",
		Score:       math.Min(100, ratio*20),
		Confidence:  math.Min(1, ratio/volumeRatioThreshold),
		Description: fmt.Sprintf("volume %.0f is %.1fx the %d-period average", latest, ratio, lookback),
	}
}

func detectVolatilityAnomaly(prices []float64, lookback int) *models.Anomaly {
	if len(prices) < lookback+5 {
		return nil
	}

	recent := prices[len(prices)-5:]
	prior := prices[len(prices)-5-lookback : len(prices)-5]

	priorVol := stats.AnnualizedVolatility(prior)
	if priorVol == 0 {
		return nil
	}

	ratio := stats.AnnualizedVolatility(recent) / priorVol
	if ratio <= volRatioThreshold {
		return nil
	}

	return &models.Anomaly{
		Type:        "volatility",
		Score:       math.Min(100, ratio*30),
		Confidence:  math.Min(1, ratio/volRatioThreshold),
		Description: fmt.Sprintf("recent volatility is %.1fx the trailing %d-period level", ratio, lookback),
	}
}

// FindSupportResistanceLevels detects local minima and maxima by 3-point
// comparison and clusters each set independently. Requires at least 20
// points; fewer returns empty level sets.
func (a *Analyzer) FindSupportResistanceLevels(prices []float64, sensitivity float64) *models.SupportResistance {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}

	levels := &models.SupportResistance{}
	if len(prices) < 20 {
		return levels
	}

	var minima, maxima []float64
	for i := 1; i < len(prices)-1; i++ {
		if prices[i] < prices[i-1] && prices[i] < prices[i+1] {
			minima = append(minima, prices[i])
		}
		if prices[i] > prices[i-1] && prices[i] > prices[i+1] {
			maxima = append(maxima, prices[i])
		}
	}

	levels.Support = stats.ClusterLevels(minima, sensitivity)
	levels.Resistance = stats.ClusterLevels(maxima, sensitivity)
	return levels
}

// ClassifyMarketRegime classifies the market state for a ticker.
// Priority: volatility above 30 wins over any trend signal; strong trends
// map to bull/bear; everything else is sideways.
func (a *Analyzer) ClassifyMarketRegime(prices, volumes []float64) *models.RegimeClassification {
	volatility := stats.AnnualizedVolatility(prices)
	if volatility > 30 {
		return &models.RegimeClassification{
			Regime:     "volatile",
			Confidence: 0.8,
			Characteristics: []string{
				"elevated price volatility",
				fmt.Sprintf("annualized volatility %.1f%% exceeds 30%% threshold", volatility),
			},
		}
	}

	trend, err := a.AnalyzeTrend(prices, DefaultTrendWindow)
	if err != nil {
		return &models.RegimeClassification{
			Regime:          "sideways",
			Confidence:      0.5,
			Characteristics: []string{"insufficient history for trend analysis"},
		}
	}

	volumeAgrees := stats.LinearRegressionSlope(volumes) > 0

	if trend.Strength > 50 && trend.Direction != "sideways" {
		regime := "bull"
		if trend.Direction == "downward" {
			regime = "bear"
		}

		confidence := trend.Strength / 100
		characteristics := []string{
			fmt.Sprintf("%s trend with strength %.0f", trend.Direction, trend.Strength),
		}
		if volumeAgrees {
			confidence = math.Min(1, confidence+0.2)
			characteristics = append(characteristics, "rising volume confirms the move")
		}

		return &models.RegimeClassification{
			Regime:          regime,
			Confidence:      confidence,
			Characteristics: characteristics,
		}
	}

	return &models.RegimeClassification{
		Regime:     "sideways",
		Confidence: 1 - trend.Strength/100,
		Characteristics: []string{
			fmt.Sprintf("no dominant trend (strength %.0f)", trend.Strength),
			fmt.Sprintf("annualized volatility %.1f%% within normal range", volatility),
		},
	}
}

// seriesOf extracts the chronological value series for one data type.
func seriesOf(points []models.MarketDataPoint, dataType models.DataType) []float64 {
	var series []float64
	for _, p := range points {
		if p.DataType == dataType {
			series = append(series, p.Value)
		}
	}
	return series
}
