// Package dashboard turns market data into grid tables: column presets,
// row builders, cell formatting, and the summary figures shown around the
// tables.
package dashboard

import (
	"math"

	"stockgrid/internal/domain"
)

// BarStats holds aggregated statistics over a K-line range of one symbol.
type BarStats struct {
	Symbol      string
	Bars        int
	High        float64
	Low         float64
	Open        float64 // first bar's open
	Close       float64 // last bar's close
	TotalVolume int64
	Turnover    float64 // sum(vwap or close * volume)
	MaxGain     float64 // best close-to-close gain buying before selling
	MaxLoss     float64 // worst close-to-close loss buying before selling
}

// Change is the relative move from the first open to the last close.
func (s BarStats) Change() float64 {
	if s.Open == 0 {
		return 0
	}
	return (s.Close - s.Open) / s.Open
}

// AggregateBars computes range statistics over bars, which must be in
// time order.
func AggregateBars(bars []domain.Bar) BarStats {
	if len(bars) == 0 {
		return BarStats{}
	}
	s := BarStats{
		Symbol: bars[0].Symbol,
		Low:    math.MaxFloat64,
		Open:   bars[0].Open,
	}
	minClose := math.MaxFloat64
	maxClose := 0.0

	for _, b := range bars {
		s.Bars++
		s.TotalVolume += b.Volume
		px := b.VWAP
		if px == 0 {
			px = b.Close
		}
		s.Turnover += px * float64(b.Volume)
		s.High = max(s.High, b.High)
		s.Low = min(s.Low, b.Low)
		s.Close = b.Close

		// Max gain: buy at lowest close seen so far, sell now.
		minClose = min(minClose, b.Close)
		if minClose > 0 {
			s.MaxGain = max(s.MaxGain, (b.Close-minClose)/minClose)
		}
		// Max loss: buy at highest close seen so far, sell now.
		maxClose = max(maxClose, b.Close)
		if b.Close > 0 {
			s.MaxLoss = max(s.MaxLoss, (maxClose-b.Close)/b.Close)
		}
	}
	return s
}

// Breadth summarises a stock list.
type Breadth struct {
	Up       int
	Down     int
	Flat     int
	Turnover float64
}

// ComputeBreadth counts advancers and decliners in quotes.
func ComputeBreadth(quotes []domain.Quote) Breadth {
	var b Breadth
	for _, q := range quotes {
		switch c := q.Change(); {
		case c > 0:
			b.Up++
		case c < 0:
			b.Down++
		default:
			b.Flat++
		}
		b.Turnover += q.Turnover
	}
	return b
}
