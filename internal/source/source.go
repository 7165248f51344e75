// Package source fetches daily bars from a market data provider and moves
// them into the local stores.
package source

import (
	"context"
	"time"

	"stockgrid/internal/domain"
)

// BarSource is a provider of daily bars.
type BarSource interface {
	// Name returns the source identifier, e.g. "alpaca".
	Name() string

	// FetchBars returns daily bars for symbols within [start, end]. Symbols
	// with no data are simply absent from the result.
	FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error)
}
