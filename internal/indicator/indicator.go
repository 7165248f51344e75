// Package indicator computes technical indicators over K-line series.
// Every function returns a slice aligned with its input; positions without
// enough history hold NaN.
package indicator

import (
	"math"
	"slices"

	talib "github.com/markcheno/go-talib"

	"stockgrid/internal/domain"
)

// Closes extracts the close prices of bars.
func Closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// warmup marks the first n positions of s as undefined. talib leaves them
// at zero.
func warmup(s []float64, n int) []float64 {
	for i := range min(n, len(s)) {
		s[i] = math.NaN()
	}
	return s
}

// MA is the simple moving average over n periods.
func MA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return nanSlice(len(values))
	}
	if n == 1 {
		return slices.Clone(values)
	}
	return warmup(talib.Sma(values, n), n-1)
}

// EMA is the exponential moving average with smoothing 2/(n+1), seeded
// with the simple average of the first n values.
func EMA(values []float64, n int) []float64 {
	if n <= 0 || len(values) < n {
		return nanSlice(len(values))
	}
	if n == 1 {
		return slices.Clone(values)
	}
	return warmup(talib.Ema(values, n), n-1)
}

// RSI is the relative strength index with Wilder smoothing. The first
// value appears at index n. A series that has not moved yet reads 50.
func RSI(values []float64, n int) []float64 {
	if n < 2 || len(values) <= n {
		return nanSlice(len(values))
	}
	out := warmup(talib.Rsi(values, n), n)
	moved := false
	for i := 1; i < len(values); i++ {
		moved = moved || values[i] != values[i-1]
		if !moved && i >= n {
			out[i] = 50
		}
	}
	return out
}

// MACDSeries holds the three MACD lines.
type MACDSeries struct {
	DIF  []float64
	DEA  []float64
	Hist []float64 // 2 * (DIF - DEA)
}

// MACD computes DIF = EMA(fast) - EMA(slow), DEA = EMA(DIF, signal) and
// the doubled histogram. DIF starts once the slower EMA is defined and DEA
// signal-1 bars after that.
func MACD(values []float64, fast, slow, signal int) MACDSeries {
	n := len(values)
	out := MACDSeries{DIF: nanSlice(n), DEA: nanSlice(n), Hist: nanSlice(n)}
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return out
	}
	first := max(fast, slow) - 1
	if n <= first {
		return out
	}
	ef, es := EMA(values, fast), EMA(values, slow)
	for i := first; i < n; i++ {
		out.DIF[i] = ef[i] - es[i]
	}
	copy(out.DEA[first:], EMA(out.DIF[first:], signal))
	for i := range n {
		out.Hist[i] = 2 * (out.DIF[i] - out.DEA[i])
	}
	return out
}

// KDJSeries holds the stochastic K, D and J lines.
type KDJSeries struct {
	K []float64
	D []float64
	J []float64
}

// KDJ computes the stochastic oscillator over an n-bar window. K and D are
// smoothed with weights 1/kPeriod and 1/dPeriod and start from 50 at the
// first full window.
func KDJ(bars []domain.Bar, n, kPeriod, dPeriod int) KDJSeries {
	size := len(bars)
	out := KDJSeries{K: nanSlice(size), D: nanSlice(size), J: nanSlice(size)}
	if n <= 0 || kPeriod <= 0 || dPeriod <= 0 || size < n {
		return out
	}
	hh := make([]float64, size)
	ll := make([]float64, size)
	for i, b := range bars {
		hh[i], ll[i] = b.High, b.Low
	}
	if n > 1 {
		hh, ll = talib.Max(hh, n), talib.Min(ll, n)
	}

	k, d := 50.0, 50.0
	for i := n - 1; i < size; i++ {
		rsv := 50.0
		if hh[i] > ll[i] {
			rsv = (bars[i].Close - ll[i]) / (hh[i] - ll[i]) * 100
		}
		k = (float64(kPeriod-1)*k + rsv) / float64(kPeriod)
		d = (float64(dPeriod-1)*d + k) / float64(dPeriod)
		out.K[i] = k
		out.D[i] = d
		out.J[i] = 3*k - 2*d
	}
	return out
}

// BollSeries holds the Bollinger bands.
type BollSeries struct {
	Upper []float64
	Mid   []float64
	Lower []float64
}

// BOLL computes Bollinger bands: the n-period MA plus and minus mult
// population standard deviations. n must be at least 2.
func BOLL(values []float64, n int, mult float64) BollSeries {
	if n < 2 || len(values) < n {
		return BollSeries{Upper: nanSlice(len(values)), Mid: nanSlice(len(values)), Lower: nanSlice(len(values))}
	}
	upper, mid, lower := talib.BBands(values, n, mult, mult, talib.SMA)
	return BollSeries{
		Upper: warmup(upper, n-1),
		Mid:   warmup(mid, n-1),
		Lower: warmup(lower, n-1),
	}
}
