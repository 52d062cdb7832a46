package stats

// Technical indicators over chronological price series (oldest first).
// Functions return a 0 sentinel rather than an error when the series is
// shorter than the indicator window; callers treat 0 as "not enough data".

// SMA calculates the Simple Moving Average over the trailing period.
func SMA(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}

	sum := 0.0
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMA calculates the Exponential Moving Average for the given period,
// seeded with the SMA of the first period values.
func EMA(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := SMA(series[:period], period)

	for _, v := range series[period:] {
		ema = (v-ema)*multiplier + ema
	}
	return ema
}

// RSI calculates the Relative Strength Index using Wilder-style average
// gain/loss over the most recent period deltas. Returns the neutral 50
// when there is insufficient data, and 100 when there are no losses.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	recent := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(recent); i++ {
		change := recent[i] - recent[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Bands holds Bollinger Band levels.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// BollingerBands calculates bands as SMA ± k standard deviations over the
// trailing window. Returns zero bands when there is insufficient data.
func BollingerBands(prices []float64, period int, k float64) Bands {
	if period <= 0 || len(prices) < period {
		return Bands{}
	}

	window := prices[len(prices)-period:]
	middle := SMA(prices, period)
	sd := StdDev(window)

	return Bands{
		Upper:  middle + k*sd,
		Middle: middle,
		Lower:  middle - k*sd,
	}
}

// MACDResult holds MACD line, signal line, and histogram.
type MACDResult struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MACD calculates Moving Average Convergence Divergence: EMA(12) − EMA(26),
// with the signal line as a rolling EMA(9) over the MACD history.
// Returns a zero result for series shorter than 26 points.
func MACD(prices []float64) MACDResult {
	const (
		fastPeriod   = 12
		slowPeriod   = 26
		signalPeriod = 9
	)

	if len(prices) < slowPeriod {
		return MACDResult{}
	}

	macdSeries := macdHistory(prices, fastPeriod, slowPeriod)
	line := macdSeries[len(macdSeries)-1]

	signal := line
	if len(macdSeries) >= signalPeriod {
		signal = EMA(macdSeries, signalPeriod)
	}

	return MACDResult{
		Line:      line,
		Signal:    signal,
		Histogram: line - signal,
	}
}

// macdHistory returns the MACD line value at each index from slowPeriod-1
// onward, using incrementally updated EMAs.
func macdHistory(prices []float64, fastPeriod, slowPeriod int) []float64 {
	fastMult := 2.0 / float64(fastPeriod+1)
	slowMult := 2.0 / float64(slowPeriod+1)

	fast := SMA(prices[:fastPeriod], fastPeriod)
	for _, v := range prices[fastPeriod:slowPeriod] {
		fast = (v-fast)*fastMult + fast
	}
	slow := SMA(prices[:slowPeriod], slowPeriod)

	history := make([]float64, 0, len(prices)-slowPeriod+1)
	history = append(history, fast-slow)

	for _, v := range prices[slowPeriod:] {
		fast = (v-fast)*fastMult + fast
		slow = (v-slow)*slowMult + slow
		history = append(history, fast-slow)
	}
	return history
}
