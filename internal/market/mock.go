// Package market generates deterministic mock market data: daily K-lines
// from a seeded random walk and a stock list large enough to exercise the
// virtualized grid.
package market

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"stockgrid/internal/domain"
	"stockgrid/internal/util"
)

// SymbolsUpTo enumerates A-Z tickers of length 1 through 4 in order and
// returns the first n of them.
func SymbolsUpTo(n int) []string {
	if n <= 0 {
		return nil
	}
	symbols := make([]string, 0, n)
	var buf [4]byte

	var walk func(depth, length int) bool
	walk = func(depth, length int) bool {
		if depth == length {
			symbols = append(symbols, string(buf[:length]))
			return len(symbols) < n
		}
		for c := byte('A'); c <= 'Z'; c++ {
			buf[depth] = c
			if !walk(depth+1, length) {
				return false
			}
		}
		return true
	}
	for length := 1; length <= 4; length++ {
		if !walk(0, length) {
			break
		}
	}
	return symbols
}

func newRand(seed uint64, symbol string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

// BarOptions controls GenerateBars.
type BarOptions struct {
	Market     domain.Market
	Start      time.Time // first candidate day; non-trading days are skipped
	Days       int       // number of trading days to produce
	StartPrice float64   // 0 picks a price in [10, 500)
	Volatility float64   // daily return sd; 0 means 2%
	Seed       uint64
}

// GenerateBars produces a daily random-walk K-line series for symbol.
// The same symbol and options always produce the same bars.
func GenerateBars(symbol string, opts BarOptions) []domain.Bar {
	if opts.Days <= 0 {
		return nil
	}
	r := newRand(opts.Seed, symbol)
	price := opts.StartPrice
	if price <= 0 {
		price = 10 + r.Float64()*490
	}
	vol := opts.Volatility
	if vol <= 0 {
		vol = 0.02
	}
	baseVolume := 1e6 + r.Float64()*5e7

	days := util.NewTradingCalendar(opts.Market).TradingDays(opts.Start, opts.Days)
	bars := make([]domain.Bar, 0, opts.Days)
	for _, day := range days {
		open := price * (1 + r.NormFloat64()*vol/4)
		closePx := open * (1 + r.NormFloat64()*vol)
		if closePx < 0.01 {
			closePx = 0.01
		}
		high := math.Max(open, closePx) * (1 + math.Abs(r.NormFloat64())*vol/2)
		low := math.Min(open, closePx) * (1 - math.Abs(r.NormFloat64())*vol/2)
		volume := int64(baseVolume * (0.5 + r.Float64()))

		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  day,
			Open:       round2(open),
			High:       round2(high),
			Low:        round2(low),
			Close:      round2(closePx),
			Volume:     volume,
			TradeCount: volume / int64(50+r.IntN(150)),
			VWAP:       round2((high + low + closePx) / 3),
		})
		price = closePx
	}
	return bars
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var sectors = []string{
	"Technology", "Healthcare", "Financials", "Energy", "Industrials",
	"Consumer", "Utilities", "Materials", "Real Estate", "Telecom",
}

var namePrefixes = []string{
	"Apex", "Blue", "Cedar", "Delta", "Echo", "Falcon", "Granite", "Harbor",
	"Iron", "Juniper", "Keystone", "Lumen", "Meridian", "Nova", "Orion",
	"Pioneer", "Quantum", "Ridge", "Summit", "Titan", "Vertex", "Zenith",
}

var nameSuffixes = []string{
	"Holdings", "Systems", "Labs", "Energy", "Capital", "Networks",
	"Therapeutics", "Industries", "Group", "Semiconductor",
}

var cnNames = []string{
	"贵州茅台", "宁德时代", "招商银行", "中国平安", "比亚迪", "隆基绿能",
	"五粮液", "美的集团", "恒瑞医药", "海天味业", "中信证券", "紫金矿业",
}

// QuoteOptions controls MockQuotes.
type QuoteOptions struct {
	Count int
	Seed  uint64
	// CNEvery makes every n-th row a CN A-share with a six-digit code and a
	// Chinese name. 0 disables CN rows.
	CNEvery int
	AsOf    time.Time
}

// MockQuotes builds a stock list of opts.Count rows. Output is
// deterministic for a given seed.
func MockQuotes(opts QuoteOptions) []domain.Quote {
	if opts.Count <= 0 {
		return nil
	}
	symbols := SymbolsUpTo(opts.Count)
	quotes := make([]domain.Quote, 0, opts.Count)
	for i, sym := range symbols {
		q := domain.Quote{Symbol: sym, Market: domain.MarketUS, UpdatedAt: opts.AsOf}
		if opts.CNEvery > 0 && i%opts.CNEvery == opts.CNEvery-1 {
			q.Symbol = fmt.Sprintf("%06d", 600000+i)
			q.Market = domain.MarketCN
		}
		r := newRand(opts.Seed, q.Symbol)

		if q.Market == domain.MarketCN {
			q.Name = cnNames[r.IntN(len(cnNames))]
		} else {
			q.Name = namePrefixes[r.IntN(len(namePrefixes))] + " " + nameSuffixes[r.IntN(len(nameSuffixes))]
		}
		q.Sector = sectors[r.IntN(len(sectors))]
		q.PrevClose = round2(1 + r.Float64()*499)
		q.Price = round2(q.PrevClose * (1 + r.NormFloat64()*0.03))
		q.Volume = int64(1e5 + r.Float64()*8e7)
		q.Turnover = math.Round(float64(q.Volume) * q.Price)
		q.MarketCap = math.Round(q.Price * (1e7 + r.Float64()*5e9))
		if r.IntN(10) == 0 {
			q.PE = math.NaN()
		} else {
			q.PE = round2(3 + r.Float64()*80)
		}
		quotes = append(quotes, q)
	}
	return quotes
}
