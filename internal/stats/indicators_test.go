package stats

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		period int
		want   float64
	}{
		{"insufficient data", []float64{1, 2}, 3, 0},
		{"zero period", []float64{1, 2, 3}, 0, 0},
		{"exact window", []float64{2, 4, 6}, 3, 4},
		{"trailing window", []float64{1, 2, 3, 4, 5}, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.series, tt.period); !almostEqual(got, tt.want) {
				t.Errorf("SMA(%v, %d) = %v, want %v", tt.series, tt.period, got, tt.want)
			}
		})
	}
}

func TestEMA(t *testing.T) {
	if got := EMA([]float64{1, 2}, 3); got != 0 {
		t.Errorf("EMA below period = %v, want 0 sentinel", got)
	}

	// With exactly period values the EMA is its SMA seed.
	if got := EMA([]float64{2, 4, 6}, 3); !almostEqual(got, 4) {
		t.Errorf("EMA(exact window) = %v, want 4", got)
	}

	// One step past the seed: ema = (v-seed)*mult + seed, mult = 2/(3+1).
	got := EMA([]float64{2, 4, 6, 8}, 3)
	want := (8.0-4.0)*0.5 + 4.0
	if !almostEqual(got, want) {
		t.Errorf("EMA one step = %v, want %v", got, want)
	}
}

func TestRSI(t *testing.T) {
	if got := RSI([]float64{100, 101}, 14); got != 50 {
		t.Errorf("RSI insufficient data = %v, want neutral 50", got)
	}

	up := make([]float64, 20)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	if got := RSI(up, 14); got != 100 {
		t.Errorf("RSI strictly rising = %v, want 100", got)
	}

	down := make([]float64, 20)
	for i := range down {
		down[i] = 100 - float64(i)
	}
	if got := RSI(down, 14); !almostEqual(got, 0) {
		t.Errorf("RSI strictly falling = %v, want 0", got)
	}

	// Equal gains and losses balance to 50.
	balanced := []float64{100, 101, 100, 101, 100}
	if got := RSI(balanced, 4); !almostEqual(got, 50) {
		t.Errorf("RSI balanced = %v, want 50", got)
	}
}

func TestBollingerBands(t *testing.T) {
	if got := BollingerBands([]float64{1, 2}, 20, 2); got != (Bands{}) {
		t.Errorf("BollingerBands insufficient data = %+v, want zero bands", got)
	}

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 50
	}
	got := BollingerBands(flat, 20, 2)
	if !almostEqual(got.Upper, 50) || !almostEqual(got.Middle, 50) || !almostEqual(got.Lower, 50) {
		t.Errorf("BollingerBands flat series = %+v, want all 50", got)
	}

	moving := []float64{48, 52, 48, 52, 48, 52, 48, 52, 48, 52,
		48, 52, 48, 52, 48, 52, 48, 52, 48, 52}
	got = BollingerBands(moving, 20, 2)
	if !almostEqual(got.Middle, 50) {
		t.Errorf("Middle = %v, want 50", got.Middle)
	}
	if !almostEqual(got.Upper, 54) || !almostEqual(got.Lower, 46) {
		t.Errorf("Upper/Lower = %v/%v, want 54/46 (sd=2, k=2)", got.Upper, got.Lower)
	}
	if got.Upper <= got.Middle || got.Middle <= got.Lower {
		t.Errorf("band ordering violated: %+v", got)
	}
}

func TestMACD(t *testing.T) {
	if got := MACD([]float64{1, 2, 3}); got != (MACDResult{}) {
		t.Errorf("MACD insufficient data = %+v, want zero result", got)
	}

	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	got := MACD(flat)
	if !almostEqual(got.Line, 0) || !almostEqual(got.Signal, 0) || !almostEqual(got.Histogram, 0) {
		t.Errorf("MACD flat series = %+v, want zeros", got)
	}

	// A sustained uptrend keeps the fast EMA above the slow EMA.
	up := make([]float64, 60)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	got = MACD(up)
	if got.Line <= 0 {
		t.Errorf("MACD line on uptrend = %v, want > 0", got.Line)
	}
	if math.Abs(got.Histogram-(got.Line-got.Signal)) > 1e-9 {
		t.Errorf("Histogram = %v, want Line-Signal = %v", got.Histogram, got.Line-got.Signal)
	}
}
