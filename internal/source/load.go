package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockgrid/internal/domain"
	"stockgrid/internal/store"
)

// Sync fetches bars for symbols from src and writes them to dst, chunkSize
// symbols at a time. It returns the number of bars written.
func Sync(ctx context.Context, src BarSource, dst store.BarStore, m domain.Market, symbols []string, start, end time.Time, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	log := slog.Default().With("source", src.Name(), "market", m)
	written := 0
	for i := 0; i < len(symbols); i += chunkSize {
		chunk := symbols[i:min(i+chunkSize, len(symbols))]
		bars, err := src.FetchBars(ctx, chunk, start, end)
		if err != nil {
			return written, fmt.Errorf("fetching %s..%s: %w", chunk[0], chunk[len(chunk)-1], err)
		}
		if err := dst.WriteBars(ctx, m, bars); err != nil {
			return written, fmt.Errorf("writing bars: %w", err)
		}
		written += len(bars)
		log.Info("chunk synced", "symbols", len(chunk), "bars", len(bars), "progress", fmt.Sprintf("%d/%d", i+len(chunk), len(symbols)))
	}
	return written, nil
}

// LoadAll reads the bars of every symbol in [start, end] from bs, at most
// workers at a time. Symbols without bars are left out of the map.
func LoadAll(ctx context.Context, bs store.BarStore, m domain.Market, symbols []string, start, end time.Time, workers int) (map[string][]domain.Bar, error) {
	if workers <= 0 {
		workers = 8
	}
	var (
		mu  sync.Mutex
		out = make(map[string][]domain.Bar, len(symbols))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sym := range symbols {
		g.Go(func() error {
			bars, err := bs.ReadBars(ctx, m, sym, start, end)
			if err != nil {
				return fmt.Errorf("reading %s: %w", sym, err)
			}
			if len(bars) == 0 {
				return nil
			}
			mu.Lock()
			out[sym] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// QuoteFromBars summarises a bar series as a stock-list row: the last
// close is the price and the one before it the previous close. ok is
// false when bars is empty.
func QuoteFromBars(m domain.Market, bars []domain.Bar) (q domain.Quote, ok bool) {
	if len(bars) == 0 {
		return domain.Quote{}, false
	}
	last := bars[len(bars)-1]
	q = domain.Quote{
		Symbol:    last.Symbol,
		Name:      last.Symbol,
		Market:    m,
		Price:     last.Close,
		PrevClose: last.Open,
		Volume:    last.Volume,
		Turnover:  float64(last.Volume) * last.VWAP,
		UpdatedAt: last.Timestamp,
	}
	if len(bars) > 1 {
		q.PrevClose = bars[len(bars)-2].Close
	}
	if q.Turnover == 0 {
		q.Turnover = float64(last.Volume) * last.Close
	}
	return q, true
}
