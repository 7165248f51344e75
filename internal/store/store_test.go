package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"stockgrid/internal/domain"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	bp := ps.barPath("aapl", domain.MarketUS, 2024)
	want := filepath.Join("/data", "us", "daily", "AAPL", "2024.parquet")
	if bp != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", bp, want)
	}

	cn := ps.barPath("600519", domain.MarketCN, 2023)
	want = filepath.Join("/data", "cn", "daily", "600519", "2023.parquet")
	if cn != want {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", cn, want)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars := []domain.Bar{
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:       185.0,
			High:       186.5,
			Low:        184.0,
			Close:      185.5,
			Volume:     50000000,
			TradeCount: 500000,
			VWAP:       185.25,
		},
		{
			Symbol:     "AAPL",
			Timestamp:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:       185.5,
			High:       187.0,
			Low:        185.0,
			Close:      186.0,
			Volume:     45000000,
			TradeCount: 450000,
			VWAP:       185.75,
		},
	}

	if err := ps.WriteBars(ctx, domain.MarketUS, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, domain.MarketUS, "AAPL", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if diff := cmp.Diff(bars, got); diff != "" {
		t.Errorf("ReadBars mismatch (-want +got):\n%s", diff)
	}

	// Range filtering is inclusive on both ends.
	got, err = ps.ReadBars(ctx, domain.MarketUS, "AAPL", bars[1].Timestamp, bars[1].Timestamp)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 1 || got[0].Close != 186.0 {
		t.Errorf("ReadBars single day = %v, want the 2024-01-03 bar", got)
	}
}

func TestParquetStoreMergeBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	if err := ps.WriteBars(ctx, domain.MarketUS, []domain.Bar{
		{Symbol: "MSFT", Timestamp: day1, Close: 403.0},
	}); err != nil {
		t.Fatalf("WriteBars (first): %v", err)
	}
	// Same year file: merged, and the day1 bar is replaced.
	if err := ps.WriteBars(ctx, domain.MarketUS, []domain.Bar{
		{Symbol: "MSFT", Timestamp: day2, Close: 408.0},
		{Symbol: "MSFT", Timestamp: day1, Close: 404.0},
	}); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	got, err := ps.ReadBars(ctx, domain.MarketUS, "MSFT", day1, day2)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars after merge, want 2", len(got))
	}
	if got[0].Close != 404.0 || got[1].Close != 408.0 {
		t.Errorf("closes = [%v %v], want [404 408]", got[0].Close, got[1].Close)
	}
}

func TestParquetStoreReadAllBarsAcrossYears(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "TSLA", Timestamp: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Close: 1},
		{Symbol: "TSLA", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 2},
	}
	if err := ps.WriteBars(ctx, domain.MarketUS, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	got, err := ps.ReadAllBars(ctx, domain.MarketUS, "tsla")
	if err != nil {
		t.Fatalf("ReadAllBars: %v", err)
	}
	if diff := cmp.Diff(bars, got); diff != "" {
		t.Errorf("ReadAllBars mismatch (-want +got):\n%s", diff)
	}

	none, err := ps.ReadAllBars(ctx, domain.MarketUS, "NOPE")
	if err != nil || len(none) != 0 {
		t.Errorf("ReadAllBars(NOPE) = %v, %v; want empty, nil", none, err)
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "GOOGL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 140.5},
		{Symbol: "AAPL", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 185.5},
	}
	if err := ps.WriteBars(ctx, domain.MarketUS, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx, domain.MarketUS)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if diff := cmp.Diff([]string{"AAPL", "GOOGL"}, symbols); diff != "" {
		t.Errorf("ListSymbols mismatch (-want +got):\n%s", diff)
	}

	empty, err := ps.ListSymbols(ctx, domain.MarketCN)
	if err != nil || empty != nil {
		t.Errorf("ListSymbols(cn) = %v, %v; want nil, nil", empty, err)
	}
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sub", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	t.Cleanup(func() {
		if cerr := s.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	})
	return s
}

func TestSQLiteStoreOpen(t *testing.T) {
	s := openSQLite(t)
	if err := s.db.Ping(); err != nil {
		t.Fatalf("db.Ping() returned error: %v", err)
	}
	// Migrations are idempotent.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSQLiteStoreQuotes(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	asOf := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)

	quotes := []domain.Quote{
		{Symbol: "MSFT", Name: "Microsoft", Market: domain.MarketUS, Sector: "Technology",
			Price: 410, PrevClose: 400, Volume: 100, Turnover: 41000, MarketCap: 3e12, PE: 35, UpdatedAt: asOf},
		{Symbol: "AAPL", Name: "Apple", Market: domain.MarketUS, Sector: "Technology",
			Price: 170, PrevClose: 172, Volume: 200, Turnover: 34000, MarketCap: 2.6e12, PE: math.NaN(), UpdatedAt: asOf},
		{Symbol: "600519", Name: "贵州茅台", Market: domain.MarketCN, Sector: "Consumer",
			Price: 1700, PrevClose: 1690, PE: 28},
	}
	if err := s.UpsertQuotes(ctx, quotes); err != nil {
		t.Fatalf("UpsertQuotes: %v", err)
	}

	us, err := s.ListQuotes(ctx, domain.MarketUS)
	if err != nil {
		t.Fatalf("ListQuotes: %v", err)
	}
	want := []domain.Quote{quotes[1], quotes[0]}
	if diff := cmp.Diff(want, us, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("ListQuotes(us) mismatch (-want +got):\n%s", diff)
	}

	// Upsert replaces the existing row.
	updated := quotes[0]
	updated.Price = 420
	if err := s.UpsertQuotes(ctx, []domain.Quote{updated}); err != nil {
		t.Fatalf("UpsertQuotes (update): %v", err)
	}
	all, err := s.ListQuotes(ctx, "")
	if err != nil {
		t.Fatalf("ListQuotes(all): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListQuotes(all) returned %d rows, want 3", len(all))
	}
	if all[0].Symbol != "600519" || all[0].Name != "贵州茅台" {
		t.Errorf("first row = %+v, want the cn quote", all[0])
	}
	if all[2].Symbol != "MSFT" || all[2].Price != 420 {
		t.Errorf("MSFT price = %v, want 420", all[2].Price)
	}
}

func TestSQLiteStoreWatchlist(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	for _, sym := range []string{"nvda", "AAPL", "NVDA", "tsla"} {
		if err := s.AddToWatchlist(ctx, sym); err != nil {
			t.Fatalf("AddToWatchlist(%s): %v", sym, err)
		}
	}
	got, err := s.Watchlist(ctx)
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if diff := cmp.Diff([]string{"NVDA", "AAPL", "TSLA"}, got); diff != "" {
		t.Errorf("Watchlist mismatch (-want +got):\n%s", diff)
	}

	if err := s.RemoveFromWatchlist(ctx, "aapl"); err != nil {
		t.Fatalf("RemoveFromWatchlist: %v", err)
	}
	if err := s.RemoveFromWatchlist(ctx, "ZZZZ"); err != nil {
		t.Fatalf("RemoveFromWatchlist(unknown): %v", err)
	}
	got, _ = s.Watchlist(ctx)
	if diff := cmp.Diff([]string{"NVDA", "TSLA"}, got); diff != "" {
		t.Errorf("Watchlist after remove mismatch (-want +got):\n%s", diff)
	}
}
