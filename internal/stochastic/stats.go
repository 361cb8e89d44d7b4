package stochastic

import (
	"math"
	"sort"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// Returns computes simple day-over-day returns. The result has one fewer
// element than prices.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

// RollingVolatility returns the annualized sample standard deviation over each
// full window of returns. Element k covers returns[k : k+window].
func RollingVolatility(returns []float64, window int) []float64 {
	if window < 2 || len(returns) < window {
		return []float64{}
	}
	out := make([]float64, len(returns)-window+1)
	for k := range out {
		_, sd := meanStd(returns[k : k+window])
		out[k] = sd * math.Sqrt(TradingDaysPerYear)
	}
	return out
}

// SharpeRatio is the annualized mean return in excess of riskFreeRate divided
// by annualized volatility. It returns 0 when volatility is zero or there are
// fewer than two returns.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, sd := meanStd(returns)
	vol := sd * math.Sqrt(TradingDaysPerYear)
	if vol == 0 {
		return 0
	}
	return (mean*TradingDaysPerYear - riskFreeRate) / vol
}

// CorrelationMatrix computes pairwise Pearson correlation over the common
// prefix of each pair of return series. Assets are sorted by name. The
// diagonal is 1; a pair involving a constant series correlates at 0.
func CorrelationMatrix(returnsByAsset map[string][]float64) domain.CorrelationMatrix {
	names := make([]string, 0, len(returnsByAsset))
	for name := range returnsByAsset {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([][]float64, len(names))
	for i := range values {
		values[i] = make([]float64, len(names))
		values[i][i] = 1
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			c := pearson(returnsByAsset[names[i]], returnsByAsset[names[j]])
			values[i][j] = c
			values[j][i] = c
		}
	}
	return domain.CorrelationMatrix{Assets: names, Values: values}
}

func pearson(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return 0
	}
	a, b = a[:n], b[:n]
	ma, _ := meanStd(a)
	mb, _ := meanStd(b)

	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}

// meanStd returns the mean and the sample (n-1) standard deviation.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
