package domain

import (
	"math"
	"testing"
	"time"
)

func TestTypesExist(t *testing.T) {
	bar := Bar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value Bar")
	}
	if !bar.Timestamp.IsZero() {
		t.Error("expected zero Timestamp for zero-value Bar")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 {
		t.Error("expected zero OHLC values for zero-value Bar")
	}

	if MarketUS != "us" || MarketCN != "cn" {
		t.Error("Market constants have unexpected values")
	}

	q := Quote{
		Symbol:    "AAPL",
		Name:      "Apple Inc.",
		Market:    MarketUS,
		Price:     110,
		PrevClose: 100,
		UpdatedAt: time.Now(),
	}
	if q.Market != MarketUS {
		t.Errorf("q.Market = %q, want %q", q.Market, MarketUS)
	}
}

func TestQuoteChange(t *testing.T) {
	q := Quote{Price: 110, PrevClose: 100}
	if got := q.Change(); got != 10 {
		t.Errorf("Change() = %v, want 10", got)
	}
	if got := q.ChangePct(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("ChangePct() = %v, want 0.1", got)
	}

	q = Quote{Price: 5}
	if got := q.ChangePct(); got != 0 {
		t.Errorf("ChangePct() with no prev close = %v, want 0", got)
	}
}
