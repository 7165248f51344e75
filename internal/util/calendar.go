package util

import (
	"time"

	"stockgrid/internal/domain"
)

// TradingCalendar answers which days a market trades. Only weekends are
// treated as closed; exchange holidays are not modelled.
type TradingCalendar struct {
	market domain.Market
}

// NewTradingCalendar creates a TradingCalendar for the given market.
func NewTradingCalendar(market domain.Market) *TradingCalendar {
	return &TradingCalendar{
		market: market,
	}
}

// Market returns the calendar's market.
func (tc *TradingCalendar) Market() domain.Market {
	return tc.market
}

// IsTradingDay reports whether the market trades on t's calendar date.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextTradingDay returns midnight UTC of the first trading day on or after
// t's date.
func (tc *TradingCalendar) NextTradingDay(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for !tc.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// TradingDays returns n consecutive trading days starting at
// NextTradingDay(from).
func (tc *TradingCalendar) TradingDays(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	d := tc.NextTradingDay(from)
	for len(days) < n {
		days = append(days, d)
		d = tc.NextTradingDay(d.AddDate(0, 0, 1))
	}
	return days
}
