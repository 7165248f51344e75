// Package store defines storage interfaces for persisting and retrieving
// the K-line bars, stock-list quotes and watchlist behind the grids.
package store

import (
	"context"
	"time"

	"stockgrid/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end].
	ReadBars(ctx context.Context, market domain.Market, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)
}

// QuoteStore persists the stock list.
type QuoteStore interface {
	// UpsertQuotes inserts quotes or replaces existing rows with the same
	// (market, symbol).
	UpsertQuotes(ctx context.Context, quotes []domain.Quote) error

	// ListQuotes returns every quote of market ordered by symbol. An empty
	// market lists all markets.
	ListQuotes(ctx context.Context, market domain.Market) ([]domain.Quote, error)
}

// WatchlistStore persists the user's watched symbols.
type WatchlistStore interface {
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error

	// Watchlist returns watched symbols in the order they were added.
	Watchlist(ctx context.Context) ([]string, error)
}
