package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"golang.org/x/sync/errgroup"

	"stockgrid/internal/domain"
	"stockgrid/internal/util"
)

// Compile-time interface check.
var _ BarSource = (*AlpacaSource)(nil)

// multiBarsClient is the slice of *marketdata.Client used here.
type multiBarsClient interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// AlpacaOptions configures NewAlpacaSource.
type AlpacaOptions struct {
	APIKey     string
	APISecret  string
	DataURL    string
	Feed       string
	BatchSize  int // symbols per request; default 100
	MaxWorkers int // concurrent requests; default 4
	PerMinute  int // request budget; 0 means unlimited
}

// AlpacaSource fetches daily bars from the Alpaca market-data API. Symbols
// are split into batches fetched concurrently, each batch retried with
// backoff.
type AlpacaSource struct {
	client     multiBarsClient
	feed       string
	batchSize  int
	maxWorkers int
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials.
func NewAlpacaSource(opts AlpacaOptions) *AlpacaSource {
	clientOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		clientOpts.BaseURL = opts.DataURL
	}
	return newAlpacaSource(marketdata.NewClient(clientOpts), opts)
}

func newAlpacaSource(client multiBarsClient, opts AlpacaOptions) *AlpacaSource {
	s := &AlpacaSource{
		client:     client,
		feed:       opts.Feed,
		batchSize:  opts.BatchSize,
		maxWorkers: opts.MaxWorkers,
		limiter:    util.NewRateLimiter(opts.PerMinute, max(opts.MaxWorkers, 1)),
		log:        slog.Default().With("source", "alpaca"),
	}
	if s.feed == "" {
		s.feed = "sip"
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.maxWorkers <= 0 {
		s.maxWorkers = 4
	}
	return s
}

// Name returns "alpaca".
func (s *AlpacaSource) Name() string { return "alpaca" }

// FetchBars fetches daily bars for symbols. The first batch that still
// fails after retries cancels the remaining batches.
func (s *AlpacaSource) FetchBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var batches [][]string
	for i := 0; i < len(symbols); i += s.batchSize {
		batches = append(batches, symbols[i:min(i+s.batchSize, len(symbols))])
	}

	var (
		mu   sync.Mutex
		bars []domain.Bar
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)
	for i, batch := range batches {
		g.Go(func() error {
			got, err := s.fetchBatch(ctx, batch, start, end)
			if err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}
			s.log.Debug("batch done", "batch", fmt.Sprintf("%d/%d", i+1, len(batches)), "bars", len(got))
			mu.Lock()
			bars = append(bars, got...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Symbol != bars[j].Symbol {
			return bars[i].Symbol < bars[j].Symbol
		}
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

func (s *AlpacaSource) fetchBatch(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	var multiBars map[string][]marketdata.Bar
	err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		var err error
		multiBars, err = s.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      marketdata.Feed(s.feed),
		})
		if err != nil {
			s.log.Warn("GetMultiBars failed", "symbols", len(symbols), "error", err)
			return fmt.Errorf("GetMultiBars: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp.UTC(),
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
