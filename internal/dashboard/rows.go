package dashboard

import (
	"stockgrid/internal/domain"
	"stockgrid/internal/grid"
	"stockgrid/internal/indicator"
)

// BarRows builds one record per bar keyed by its date, with the outputs
// of every study in registry merged in.
func BarRows(bars []domain.Bar, registry *indicator.Registry) []grid.Record {
	var series map[string][]float64
	if registry != nil {
		series = registry.Apply(bars, registry.List()...)
	}

	rows := make([]grid.Record, len(bars))
	for i, b := range bars {
		rec := grid.Record{
			"key":    b.Timestamp.Format("2006-01-02"),
			"symbol": b.Symbol,
			"date":   b.Timestamp,
			"open":   b.Open,
			"high":   b.High,
			"low":    b.Low,
			"close":  b.Close,
			"volume": b.Volume,
			"vwap":   b.VWAP,
		}
		for field, values := range series {
			rec[field] = values[i]
		}
		rows[i] = rec
	}
	return rows
}

// QuoteRows builds one record per quote keyed by market and symbol.
// tiers and watched may be nil.
func QuoteRows(quotes []domain.Quote, tiers map[string]string, watched map[string]bool) []grid.Record {
	rows := make([]grid.Record, len(quotes))
	for i, q := range quotes {
		rows[i] = grid.Record{
			"key":        QuoteKey(q.Market, q.Symbol),
			"market":     string(q.Market),
			"symbol":     q.Symbol,
			"name":       q.Name,
			"price":      q.Price,
			"prev_close": q.PrevClose,
			"change":     q.Change(),
			"change_pct": q.ChangePct(),
			"volume":     q.Volume,
			"turnover":   q.Turnover,
			"tier":       tiers[q.Symbol],
			"sector":     q.Sector,
			"market_cap": q.MarketCap,
			"pe":         q.PE,
			"watched":    watched[q.Symbol],
		}
	}
	return rows
}

// QuoteKey is the row key of a quote record.
func QuoteKey(m domain.Market, symbol string) string {
	return string(m) + ":" + symbol
}
