package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockgrid/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for daily bar data.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

func toRecord(b domain.Bar) BarRecord {
	return BarRecord{
		Symbol:     strings.ToUpper(b.Symbol),
		Timestamp:  b.Timestamp.UnixMilli(),
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     b.Volume,
		TradeCount: b.TradeCount,
		VWAP:       b.VWAP,
	}
}

func (r BarRecord) bar() domain.Bar {
	return domain.Bar{
		Symbol:     r.Symbol,
		Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		TradeCount: r.TradeCount,
		VWAP:       r.VWAP,
	}
}

// WriteBars writes bars to Parquet files organized by symbol and year,
// merging with whatever each file already holds. Each symbol+year
// combination produces a separate file at:
//
//	<DataDir>/<market>/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		r := toRecord(b)
		k := key{symbol: r.Symbol, year: b.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], r)
	}

	for k, records := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.barPath(k.symbol, market, k.year)

		existing, err := readParquetFile[BarRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading existing bars for %s/%d: %w", k.symbol, k.year, err)
		}
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadBars reads bar data for the given symbol within [start, end], sorted
// by timestamp. Missing year files are skipped.
func (s *ParquetStore) ReadBars(ctx context.Context, market domain.Market, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := s.barPath(symbol, market, year)

		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		for _, r := range records {
			b := r.bar()
			if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
				bars = append(bars, b)
			}
		}
	}
	return bars, nil
}

// ReadAllBars returns every stored bar of symbol regardless of year.
func (s *ParquetStore) ReadAllBars(ctx context.Context, market domain.Market, symbol string) ([]domain.Bar, error) {
	years, err := s.years(market, symbol)
	if err != nil || len(years) == 0 {
		return nil, err
	}
	start := time.Date(years[0], 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(years[len(years)-1], 12, 31, 23, 59, 59, 0, time.UTC)
	return s.ReadBars(ctx, market, symbol, start, end)
}

// ListSymbols lists all symbols that have bar data in the given market.
func (s *ParquetStore) ListSymbols(_ context.Context, market domain.Market) ([]string, error) {
	dir := filepath.Join(s.DataDir, string(market), "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// MarketDir is the directory holding every daily file of market.
func (s *ParquetStore) MarketDir(market domain.Market) string {
	return filepath.Join(s.DataDir, string(market), "daily")
}

func (s *ParquetStore) years(market domain.Market, symbol string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.MarketDir(market), strings.ToUpper(symbol)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var years []int
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".parquet")
		if !ok {
			continue
		}
		if y, err := strconv.Atoi(name); err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}

// barPath returns the filesystem path for a bar Parquet file.
// Layout: <dataDir>/<market>/daily/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) barPath(symbol string, market domain.Market, year int) string {
	return filepath.Join(s.MarketDir(market), strings.ToUpper(symbol), strconv.Itoa(year)+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Write to a sibling and rename so readers never see a partial file.
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, records); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// new records over existing ones.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
