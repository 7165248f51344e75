// Package builtins provides the indicator studies shown in the K-line
// table: moving averages, MACD, KDJ, Bollinger bands and RSI.
package builtins

import (
	"fmt"

	"stockgrid/internal/domain"
	"stockgrid/internal/indicator"
)

// Compile-time interface checks.
var (
	_ indicator.Study = (*MovingAverages)(nil)
	_ indicator.Study = (*MACD)(nil)
	_ indicator.Study = (*KDJ)(nil)
	_ indicator.Study = (*Boll)(nil)
	_ indicator.Study = (*RSI)(nil)
)

// MovingAverages produces one simple MA per period, keyed "ma<period>".
type MovingAverages struct {
	periods []int
}

// NewMovingAverages creates a study for the given periods.
func NewMovingAverages(periods ...int) *MovingAverages {
	return &MovingAverages{periods: periods}
}

func (s *MovingAverages) Name() string { return "ma" }

func (s *MovingAverages) Fields() []string {
	out := make([]string, len(s.periods))
	for i, p := range s.periods {
		out[i] = fmt.Sprintf("ma%d", p)
	}
	return out
}

func (s *MovingAverages) Compute(bars []domain.Bar) map[string][]float64 {
	closes := indicator.Closes(bars)
	out := make(map[string][]float64, len(s.periods))
	for _, p := range s.periods {
		out[fmt.Sprintf("ma%d", p)] = indicator.MA(closes, p)
	}
	return out
}

// MACD is the 12/26/9 MACD by default.
type MACD struct {
	Fast, Slow, Signal int
}

// NewMACD creates a MACD study.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{Fast: fast, Slow: slow, Signal: signal}
}

func (s *MACD) Name() string     { return "macd" }
func (s *MACD) Fields() []string { return []string{"dif", "dea", "macd"} }

func (s *MACD) Compute(bars []domain.Bar) map[string][]float64 {
	m := indicator.MACD(indicator.Closes(bars), s.Fast, s.Slow, s.Signal)
	return map[string][]float64{"dif": m.DIF, "dea": m.DEA, "macd": m.Hist}
}

// KDJ is the 9/3/3 stochastic by default.
type KDJ struct {
	N, KPeriod, DPeriod int
}

// NewKDJ creates a KDJ study.
func NewKDJ(n, k, d int) *KDJ {
	return &KDJ{N: n, KPeriod: k, DPeriod: d}
}

func (s *KDJ) Name() string     { return "kdj" }
func (s *KDJ) Fields() []string { return []string{"k", "d", "j"} }

func (s *KDJ) Compute(bars []domain.Bar) map[string][]float64 {
	k := indicator.KDJ(bars, s.N, s.KPeriod, s.DPeriod)
	return map[string][]float64{"k": k.K, "d": k.D, "j": k.J}
}

// Boll is the 20-period, 2-sigma Bollinger band by default.
type Boll struct {
	N    int
	Mult float64
}

// NewBoll creates a Bollinger band study.
func NewBoll(n int, mult float64) *Boll {
	return &Boll{N: n, Mult: mult}
}

func (s *Boll) Name() string     { return "boll" }
func (s *Boll) Fields() []string { return []string{"boll_upper", "boll_mid", "boll_lower"} }

func (s *Boll) Compute(bars []domain.Bar) map[string][]float64 {
	b := indicator.BOLL(indicator.Closes(bars), s.N, s.Mult)
	return map[string][]float64{"boll_upper": b.Upper, "boll_mid": b.Mid, "boll_lower": b.Lower}
}

// RSI is a single-period relative strength index keyed "rsi<period>".
type RSI struct {
	N int
}

// NewRSI creates an RSI study.
func NewRSI(n int) *RSI { return &RSI{N: n} }

func (s *RSI) Name() string     { return "rsi" }
func (s *RSI) Fields() []string { return []string{fmt.Sprintf("rsi%d", s.N)} }

func (s *RSI) Compute(bars []domain.Bar) map[string][]float64 {
	return map[string][]float64{
		fmt.Sprintf("rsi%d", s.N): indicator.RSI(indicator.Closes(bars), s.N),
	}
}

// Default returns a registry with the standard dashboard studies.
func Default() *indicator.Registry {
	r := indicator.NewRegistry()
	r.Register(NewMovingAverages(5, 10, 20))
	r.Register(NewMACD(12, 26, 9))
	r.Register(NewKDJ(9, 3, 3))
	r.Register(NewBoll(20, 2))
	r.Register(NewRSI(14))
	return r
}
