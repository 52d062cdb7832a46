// Package stats provides pure statistical and technical indicator
// calculations over float series. Series are chronological, oldest first.
package stats

import (
	"math"
	"sort"

	"github.com/bobmcallan/pulse/internal/common"
)

// Sentinel errors for invalid inputs.
var (
	ErrEmptyInput     = common.NewError(common.KindValidation, "empty input series")
	ErrLengthMismatch = common.NewError(common.KindValidation, "series length mismatch")
)

// Summary holds descriptive statistics for a series.
type Summary struct {
	Count        int     `json:"count"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Variance     float64 `json:"variance"` // population
	StdDev       float64 `json:"std_dev"`
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"` // excess
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile5  float64 `json:"percentile_5"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile75 float64 `json:"percentile_75"`
	Percentile95 float64 `json:"percentile_95"`
}

// Descriptive computes summary statistics for a series.
// Variance and the higher moments are population statistics (divided by n).
// Percentiles use nearest-rank (sorted[floor(p*n)]), not interpolation.
func Descriptive(data []float64) (*Summary, error) {
	n := len(data)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var m2, m3, m4 float64
	for _, v := range data {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	variance := m2 / float64(n)
	stdDev := math.Sqrt(variance)

	var skewness, kurtosis float64
	if stdDev > 0 {
		skewness = (m3 / float64(n)) / math.Pow(stdDev, 3)
		kurtosis = (m4/float64(n))/math.Pow(stdDev, 4) - 3
	}

	return &Summary{
		Count:        n,
		Mean:         mean,
		Median:       median,
		Variance:     variance,
		StdDev:       stdDev,
		Skewness:     skewness,
		Kurtosis:     kurtosis,
		Min:          sorted[0],
		Max:          sorted[n-1],
		Percentile5:  nearestRank(sorted, 0.05),
		Percentile25: nearestRank(sorted, 0.25),
		Percentile75: nearestRank(sorted, 0.75),
		Percentile95: nearestRank(sorted, 0.95),
	}, nil
}

// nearestRank returns sorted[floor(p*n)], clamped to the last element.
func nearestRank(sorted []float64, p float64) float64 {
	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StdDev returns the population standard deviation, or 0 for an empty series.
func StdDev(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	mean := Mean(data)
	var m2 float64
	for _, v := range data {
		d := v - mean
		m2 += d * d
	}
	return math.Sqrt(m2 / float64(n))
}

// LinearRegressionSlope returns the ordinary least squares slope of the
// series against index 0..n-1. Returns 0 for fewer than two points.
func LinearRegressionSlope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range series {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}

// AnnualizedVolatility returns the population standard deviation of simple
// returns scaled by sqrt(252), as a percentage. Returns 0 for fewer than
// two prices.
func AnnualizedVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if len(returns) == 0 {
		return 0
	}

	return StdDev(returns) * math.Sqrt(252) * 100
}

// Correlation returns the Pearson correlation coefficient of two series.
// Fails for mismatched lengths or empty input; returns 0 when either
// series has zero variance.
func Correlation(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyInput
	}
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}

	meanA := Mean(a)
	meanB := Mean(b)

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0, nil
	}
	return cov / denom, nil
}

// ClusterLevels sorts values and greedily merges values within sensitivity
// relative distance of the running cluster mean, returning one
// representative (the mean) per cluster. Used for support/resistance
// detection from local price extrema.
func ClusterLevels(values []float64, sensitivity float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var levels []float64
	clusterSum := sorted[0]
	clusterCount := 1

	for _, v := range sorted[1:] {
		mean := clusterSum / float64(clusterCount)
		if mean != 0 && math.Abs(v-mean)/math.Abs(mean) <= sensitivity {
			clusterSum += v
			clusterCount++
			continue
		}
		levels = append(levels, mean)
		clusterSum = v
		clusterCount = 1
	}
	levels = append(levels, clusterSum/float64(clusterCount))

	return levels
}
