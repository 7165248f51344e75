package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockgrid/internal/config"
	"stockgrid/internal/domain"
	"stockgrid/internal/indicator/builtins"
	"stockgrid/internal/market"
	"stockgrid/internal/source"
	"stockgrid/internal/store"
	"stockgrid/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	marketFlag := flag.String("market", "", "show only this market (us or cn); empty shows all")
	symbol := flag.String("symbol", "", "open the K-line table of this symbol")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := util.NewFileLogger(util.FileLogOptions{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	util.SetDefault(logger)

	ps := store.NewParquetStore(cfg.Storage.DataDir)
	sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening sqlite: %v\n", err)
		os.Exit(1)
	}
	defer sq.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedQuotes(ctx, cfg, sq, logger); err != nil {
		fmt.Fprintf(os.Stderr, "seeding quotes: %v\n", err)
		os.Exit(1)
	}

	fetchers := map[domain.Market]source.BarSource{
		domain.MarketUS: source.NewMockSource(domain.MarketUS, cfg.Market.Seed),
		domain.MarketCN: source.NewMockSource(domain.MarketCN, cfg.Market.Seed),
	}
	if cfg.Alpaca.Enabled() {
		fetchers[domain.MarketUS] = source.NewAlpacaSource(source.AlpacaOptions{
			APIKey:     cfg.Alpaca.APIKey,
			APISecret:  cfg.Alpaca.APISecret,
			DataURL:    cfg.Alpaca.DataURL,
			Feed:       cfg.Alpaca.Feed,
			MaxWorkers: cfg.Alpaca.MaxWorkers,
		})
		logger.Info("alpaca data source enabled", "feed", cfg.Alpaca.Feed)
	}

	var reload <-chan struct{}
	w, err := source.NewWatcher(cfg.Storage.DataDir, 500*time.Millisecond)
	if err != nil {
		logger.Warn("watching data directory", "dir", cfg.Storage.DataDir, "error", err)
	} else {
		defer w.Close()
		reload = w.C
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	m := initialModel(deps{
		cfg:        cfg,
		logger:     logger,
		barStore:   ps,
		quoteStore: sq,
		watchStore: sq,
		fetchers:   fetchers,
		registry:   builtins.Default(),
		reload:     reload,
		market:     domain.Market(strings.ToLower(*marketFlag)),
	})
	if *symbol != "" {
		m.mode = viewKLine
		m.symbol = strings.ToUpper(*symbol)
		m.symMarket = domain.Market(cfg.Market.Default)
		if *marketFlag != "" {
			m.symMarket = m.market
		}
		m.loading = true
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// seedQuotes fills an empty quote table with a generated stock list so
// the table has something to show before any data was gathered.
func seedQuotes(ctx context.Context, cfg *config.Config, qs store.QuoteStore, logger *slog.Logger) error {
	existing, err := qs.ListQuotes(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	quotes := market.MockQuotes(market.QuoteOptions{
		Count:   cfg.Market.MockSymbols,
		Seed:    cfg.Market.Seed,
		CNEvery: cfg.Market.MockCNEvery,
		AsOf:    time.Now().UTC(),
	})
	if err := qs.UpsertQuotes(ctx, quotes); err != nil {
		return err
	}
	logger.Info("seeded mock quotes", "rows", len(quotes))
	return nil
}
