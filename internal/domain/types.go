// Package domain holds the market data types shared by the stores, sources
// and dashboard tables.
package domain

import "time"

// Market identifies an exchange region.
type Market string

const (
	MarketUS Market = "us"
	MarketCN Market = "cn"
)

// Bar is one OHLCV candle (a K-line).
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Quote is a row of the stock list: the latest price and its daily change
// plus a few reference fields.
type Quote struct {
	Symbol    string
	Name      string
	Market    Market
	Sector    string
	Price     float64
	PrevClose float64
	Volume    int64
	Turnover  float64
	MarketCap float64
	PE        float64 // NaN when earnings are negative or unknown
	UpdatedAt time.Time
}

// Change is the absolute move from the previous close.
func (q Quote) Change() float64 {
	return q.Price - q.PrevClose
}

// ChangePct is the relative move from the previous close, as a fraction.
// It is 0 when the previous close is unknown.
func (q Quote) ChangePct() float64 {
	if q.PrevClose == 0 {
		return 0
	}
	return (q.Price - q.PrevClose) / q.PrevClose
}
