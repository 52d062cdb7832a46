package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/models"
)

func pricePoints(values []float64) []models.MarketDataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.MarketDataPoint, len(values))
	for i, v := range values {
		points[i] = models.MarketDataPoint{
			Source:    models.SourceManual,
			Timestamp: base.AddDate(0, 0, i),
			Ticker:    "TEST",
			DataType:  models.DataStockPrice,
			Value:     v,
		}
	}
	return points
}

func volumePoints(values []float64) []models.MarketDataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.MarketDataPoint, len(values))
	for i, v := range values {
		points[i] = models.MarketDataPoint{
			Source:    models.SourceManual,
			Timestamp: base.AddDate(0, 0, i),
			Ticker:    "TEST",
			DataType:  models.DataVolume,
			Value:     v,
		}
	}
	return points
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTechnicalIndicatorsInsufficientData(t *testing.T) {
	a := New()
	if got := a.TechnicalIndicators(repeat(100, 49)); got != nil {
		t.Errorf("TechnicalIndicators(49 points) = %+v, want nil", got)
	}
}

func TestTechnicalIndicatorsFlatSeries(t *testing.T) {
	a := New()
	got := a.TechnicalIndicators(repeat(100, 50))
	if got == nil {
		t.Fatal("TechnicalIndicators(50 points) = nil, want result")
	}
	if got.SMA20 != 100 || got.SMA50 != 100 {
		t.Errorf("SMA20/SMA50 = %v/%v, want 100 both", got.SMA20, got.SMA50)
	}
	if got.RSI14 != 100 {
		t.Errorf("RSI14 flat series = %v, want 100 (no losses)", got.RSI14)
	}
	if got.MACD != 0 || got.MACDSignal != 0 {
		t.Errorf("MACD/Signal = %v/%v, want 0 both", got.MACD, got.MACDSignal)
	}
}

func TestAnalyzeTrendInsufficientData(t *testing.T) {
	a := New()
	_, err := a.AnalyzeTrend(repeat(100, 5), 20)
	if !common.IsKind(err, common.KindInsufficientData) {
		t.Errorf("AnalyzeTrend short series error = %v, want insufficient_data kind", err)
	}
}

func TestAnalyzeTrendDirections(t *testing.T) {
	a := New()

	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + 2*float64(i)
	}
	trend, err := a.AnalyzeTrend(up, 20)
	if err != nil {
		t.Fatalf("AnalyzeTrend: %v", err)
	}
	if trend.Direction != "upward" {
		t.Errorf("Direction = %q, want upward", trend.Direction)
	}
	if trend.Strength != 100 {
		t.Errorf("Strength = %v, want capped at 100", trend.Strength)
	}
	if math.Abs(trend.Slope-2) > 1e-9 {
		t.Errorf("Slope = %v, want 2", trend.Slope)
	}
	if trend.Momentum <= 0 {
		t.Errorf("Momentum = %v, want > 0 on an uptrend", trend.Momentum)
	}

	flat, err := a.AnalyzeTrend(repeat(100, 30), 20)
	if err != nil {
		t.Fatalf("AnalyzeTrend flat: %v", err)
	}
	if flat.Direction != "sideways" {
		t.Errorf("Direction = %q, want sideways", flat.Direction)
	}
	if flat.Strength != 0 {
		t.Errorf("Strength = %v, want 0", flat.Strength)
	}
}

func TestDetectAnomaliesQuietSeries(t *testing.T) {
	a := New()
	points := append(pricePoints(repeat(100, 40)), volumePoints(repeat(1000, 40))...)
	if got := a.DetectAnomalies(points, 30); len(got) != 0 {
		t.Errorf("DetectAnomalies(flat series) = %v, want none", got)
	}
}

func TestDetectPriceAnomaly(t *testing.T) {
	a := New()

	// Trailing 30 prices oscillate tightly around 100 (sd = 0.1); the last
	// point sits 10 standard deviations out.
	prices := make([]float64, 31)
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			prices[i] = 99.9
		} else {
			prices[i] = 100.1
		}
	}
	prices[30] = 101

	anomalies := a.DetectAnomalies(pricePoints(prices), 30)
	var found *models.Anomaly
	for i := range anomalies {
		if anomalies[i].Type == "price" {
			found = &anomalies[i]
		}
	}
	if found == nil {
		t.Fatalf("no price anomaly detected in %v", anomalies)
	}
	if found.Score != 100 {
		t.Errorf("Score = %v, want capped at 100 (z=10)", found.Score)
	}
	if found.Confidence != 1 {
		t.Errorf("Confidence = %v, want capped at 1", found.Confidence)
	}
}

func TestDetectVolumeAnomaly(t *testing.T) {
	a := New()

	volumes := repeat(100, 31)
	volumes[30] = 400 // 4x the trailing average

	anomalies := a.DetectAnomalies(volumePoints(volumes), 30)
	if len(anomalies) != 1 || anomalies[0].Type != "volume" {
		t.Fatalf("DetectAnomalies = %v, want one volume anomaly", anomalies)
	}
	if math.Abs(anomalies[0].Score-80) > 1e-9 {
		t.Errorf("Score = %v, want 80 (ratio 4 * 20)", anomalies[0].Score)
	}
	if anomalies[0].Confidence != 1 {
		t.Errorf("Confidence = %v, want capped at 1", anomalies[0].Confidence)
	}
}

func TestFindSupportResistanceLevels(t *testing.T) {
	a := New()

	short := a.FindSupportResistanceLevels(repeat(100, 10), 0.02)
	if len(short.Support) != 0 || len(short.Resistance) != 0 {
		t.Errorf("levels for short series = %+v, want empty", short)
	}

	// Oscillation between 95 troughs and 105 peaks.
	var prices []float64
	for i := 0; i < 12; i++ {
		prices = append(prices, 100, 105, 100, 95)
	}
	levels := a.FindSupportResistanceLevels(prices, 0.02)
	if len(levels.Support) == 0 {
		t.Error("no support levels found for oscillating series")
	}
	if len(levels.Resistance) == 0 {
		t.Error("no resistance levels found for oscillating series")
	}
	for _, s := range levels.Support {
		if math.Abs(s-95) > 1e-9 {
			t.Errorf("support level = %v, want 95", s)
		}
	}
	for _, r := range levels.Resistance {
		if math.Abs(r-105) > 1e-9 {
			t.Errorf("resistance level = %v, want 105", r)
		}
	}
}

func TestClassifyMarketRegimeVolatile(t *testing.T) {
	a := New()

	// Alternating +/-5% daily moves annualize far beyond the 30% threshold.
	prices := make([]float64, 30)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		if i%2 == 1 {
			prices[i] = prices[i-1] * 1.05
		} else {
			prices[i] = prices[i-1] * 0.95
		}
	}

	regime := a.ClassifyMarketRegime(prices, repeat(1000, 30))
	if regime.Regime != "volatile" {
		t.Fatalf("Regime = %q, want volatile", regime.Regime)
	}
	if regime.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", regime.Confidence)
	}
}

func TestClassifyMarketRegimeSideways(t *testing.T) {
	a := New()
	regime := a.ClassifyMarketRegime(repeat(100, 30), repeat(1000, 30))
	if regime.Regime != "sideways" {
		t.Errorf("Regime = %q, want sideways", regime.Regime)
	}
	if regime.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1 for zero-strength trend", regime.Confidence)
	}
}

func TestClassifyMarketRegimeBull(t *testing.T) {
	a := New()

	// Steady climb with gentle steps: strong positive slope, low volatility.
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 1000 + float64(i)
	}
	volumes := make([]float64, 40)
	for i := range volumes {
		volumes[i] = 1000 + 10*float64(i)
	}

	regime := a.ClassifyMarketRegime(prices, volumes)
	if regime.Regime != "bull" {
		t.Fatalf("Regime = %q, want bull", regime.Regime)
	}
	if regime.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1 (strength 100 + volume bonus, capped)", regime.Confidence)
	}
	if len(regime.Characteristics) < 2 {
		t.Errorf("Characteristics = %v, want trend and volume notes", regime.Characteristics)
	}
}
