package source

import (
	"context"
	"strings"
	"time"

	"stockgrid/internal/domain"
	"stockgrid/internal/market"
	"stockgrid/internal/util"
)

// Compile-time interface check.
var _ BarSource = (*MockSource)(nil)

// MockSource serves deterministic random-walk bars. Every call for the
// same symbol and range returns the same series.
type MockSource struct {
	Market domain.Market
	Seed   uint64
}

// NewMockSource creates a MockSource.
func NewMockSource(m domain.Market, seed uint64) *MockSource {
	return &MockSource{Market: m, Seed: seed}
}

// Name returns "mock".
func (s *MockSource) Name() string { return "mock" }

// FetchBars generates one bar per trading day in [start, end].
func (s *MockSource) FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	cal := util.NewTradingCalendar(s.Market)
	days := 0
	for d := cal.NextTradingDay(start); !d.After(end); d = cal.NextTradingDay(d.AddDate(0, 0, 1)) {
		days++
	}

	var bars []domain.Bar
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars = append(bars, market.GenerateBars(strings.ToUpper(sym), market.BarOptions{
			Market: s.Market,
			Start:  start,
			Days:   days,
			Seed:   s.Seed,
		})...)
	}
	return bars, nil
}
