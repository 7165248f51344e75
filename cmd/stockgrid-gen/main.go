package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockgrid/internal/config"
	"stockgrid/internal/domain"
	"stockgrid/internal/market"
	"stockgrid/internal/source"
	"stockgrid/internal/store"
	"stockgrid/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	useAlpaca := flag.Bool("alpaca", false, "fetch US bars from Alpaca instead of generating them")
	tickers := flag.String("tickers", "", "comma-separated US symbols to fetch with -alpaca")
	count := flag.Int("symbols", 0, "number of mock symbols (default from config)")
	days := flag.Int("days", 0, "trading days of history (default from config)")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	if *count <= 0 {
		*count = cfg.Market.MockSymbols
	}
	if *days <= 0 {
		*days = cfg.Market.MockDays
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -*days*7/5)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ps := store.NewParquetStore(cfg.Storage.DataDir)
	sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite: %v", err)
	}
	defer sq.Close()

	if *useAlpaca {
		if !cfg.Alpaca.Enabled() {
			log.Fatal("-alpaca needs APCA_API_KEY_ID and APCA_API_SECRET_KEY")
		}
		symbols := splitTickers(*tickers)
		if len(symbols) == 0 {
			log.Fatal("-alpaca needs -tickers")
		}
		src := source.NewAlpacaSource(source.AlpacaOptions{
			APIKey:     cfg.Alpaca.APIKey,
			APISecret:  cfg.Alpaca.APISecret,
			DataURL:    cfg.Alpaca.DataURL,
			Feed:       cfg.Alpaca.Feed,
			MaxWorkers: cfg.Alpaca.MaxWorkers,
			PerMinute:  200,
		})
		base := make([]domain.Quote, len(symbols))
		for i, s := range symbols {
			base[i] = domain.Quote{Symbol: s, Name: s, Market: domain.MarketUS, PE: math.NaN()}
		}
		if err := gather(ctx, src, ps, sq, domain.MarketUS, base, start, end, cfg.Alpaca.MaxWorkers); err != nil {
			log.Fatalf("alpaca gather failed: %v", err)
		}
		return
	}

	quotes := market.MockQuotes(market.QuoteOptions{
		Count:   *count,
		Seed:    cfg.Market.Seed,
		CNEvery: cfg.Market.MockCNEvery,
		AsOf:    end,
	})
	byMarket := make(map[domain.Market][]domain.Quote)
	for _, q := range quotes {
		byMarket[q.Market] = append(byMarket[q.Market], q)
	}
	for _, m := range []domain.Market{domain.MarketUS, domain.MarketCN} {
		if len(byMarket[m]) == 0 {
			continue
		}
		src := source.NewMockSource(m, cfg.Market.Seed)
		if err := gather(ctx, src, ps, sq, m, byMarket[m], start, end, 8); err != nil {
			log.Fatalf("mock gather failed: %v", err)
		}
	}
}

// gather syncs bars for the symbols of base into the parquet store, then
// derives each symbol's latest quote from its bars and upserts it. Fields
// bars cannot provide (name, sector, market cap, PE) come from base.
func gather(ctx context.Context, src source.BarSource, ps *store.ParquetStore, qs store.QuoteStore,
	m domain.Market, base []domain.Quote, start, end time.Time, workers int) error {
	symbols := make([]string, len(base))
	for i, q := range base {
		symbols[i] = q.Symbol
	}

	t0 := time.Now()
	written, err := source.Sync(ctx, src, ps, m, symbols, start, end, 200)
	if err != nil {
		return err
	}
	slog.Info("bars synced", "market", m, "source", src.Name(), "symbols", len(symbols),
		"bars", written, "elapsed", time.Since(t0).Round(time.Millisecond))

	// Two weeks is enough for the last two closes.
	recent, err := source.LoadAll(ctx, ps, m, symbols, end.AddDate(0, 0, -14), end, workers)
	if err != nil {
		return err
	}
	quotes := make([]domain.Quote, 0, len(base))
	for _, b := range base {
		q, ok := source.QuoteFromBars(m, recent[b.Symbol])
		if !ok {
			slog.Warn("no bars for symbol", "market", m, "symbol", b.Symbol)
			continue
		}
		q.Name, q.Sector, q.PE = b.Name, b.Sector, b.PE
		if b.Price > 0 {
			// Keep the generated share count behind the market cap.
			q.MarketCap = b.MarketCap / b.Price * q.Price
		}
		quotes = append(quotes, q)
	}
	if err := qs.UpsertQuotes(ctx, quotes); err != nil {
		return err
	}
	slog.Info("quotes written", "market", m, "rows", len(quotes))
	return nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
