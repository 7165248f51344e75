package market

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"stockgrid/internal/domain"
)

func TestSymbolsUpTo(t *testing.T) {
	got := SymbolsUpTo(28)
	if len(got) != 28 {
		t.Fatalf("len = %d, want 28", len(got))
	}
	if got[0] != "A" || got[25] != "Z" || got[26] != "AA" || got[27] != "AB" {
		t.Errorf("unexpected ordering: %v", got)
	}
	if SymbolsUpTo(0) != nil {
		t.Error("SymbolsUpTo(0) should be nil")
	}
}

func TestSymbolsUpToUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range SymbolsUpTo(2000) {
		if seen[s] {
			t.Fatalf("duplicate symbol %q", s)
		}
		seen[s] = true
	}
}

func TestGenerateBarsSkipsWeekends(t *testing.T) {
	// 2024-01-06 is a Saturday.
	bars := GenerateBars("AAPL", BarOptions{
		Start: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
		Days:  10,
		Seed:  1,
	})
	if len(bars) != 10 {
		t.Fatalf("len = %d, want 10", len(bars))
	}
	if want := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC); !bars[0].Timestamp.Equal(want) {
		t.Errorf("first bar = %v, want %v", bars[0].Timestamp, want)
	}
	for i, b := range bars {
		if wd := b.Timestamp.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("bar %d falls on %v", i, wd)
		}
		if b.High < b.Low {
			t.Errorf("bar %d: high %v < low %v", i, b.High, b.Low)
		}
		if b.Volume <= 0 {
			t.Errorf("bar %d: volume %d", i, b.Volume)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			t.Errorf("bar %d not after bar %d", i, i-1)
		}
	}
}

func TestGenerateBarsDeterministic(t *testing.T) {
	opts := BarOptions{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Days: 50, Seed: 7}
	a := GenerateBars("MSFT", opts)
	b := GenerateBars("MSFT", opts)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different bars (-a +b):\n%s", diff)
	}
	c := GenerateBars("NVDA", opts)
	if cmp.Equal(a, c, cmpopts.IgnoreFields(domain.Bar{}, "Symbol")) {
		t.Error("different symbols produced identical series")
	}
}

func TestGenerateBarsStartPrice(t *testing.T) {
	bars := GenerateBars("X", BarOptions{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1, StartPrice: 100, Seed: 3})
	if math.Abs(bars[0].Open-100) > 10 {
		t.Errorf("open = %v, want near 100", bars[0].Open)
	}
	if GenerateBars("X", BarOptions{Days: 0}) != nil {
		t.Error("Days=0 should produce nil")
	}
}

func TestMockQuotes(t *testing.T) {
	quotes := MockQuotes(QuoteOptions{Count: 2000, Seed: 42, CNEvery: 5})
	if len(quotes) != 2000 {
		t.Fatalf("len = %d, want 2000", len(quotes))
	}
	seen := make(map[string]bool)
	cn := 0
	for _, q := range quotes {
		if seen[q.Symbol] {
			t.Fatalf("duplicate symbol %q", q.Symbol)
		}
		seen[q.Symbol] = true
		if q.Market == domain.MarketCN {
			cn++
			if len(q.Symbol) != 6 {
				t.Errorf("CN symbol %q is not six digits", q.Symbol)
			}
		}
		if q.Name == "" || q.Sector == "" {
			t.Errorf("%s: missing name or sector", q.Symbol)
		}
		if q.Turnover < 0 {
			t.Errorf("%s: turnover %v", q.Symbol, q.Turnover)
		}
	}
	if cn != 400 {
		t.Errorf("CN rows = %d, want 400", cn)
	}
}

func TestMockQuotesDeterministic(t *testing.T) {
	a := MockQuotes(QuoteOptions{Count: 50, Seed: 9})
	b := MockQuotes(QuoteOptions{Count: 50, Seed: 9})
	if diff := cmp.Diff(a, b, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("same seed produced different quotes (-a +b):\n%s", diff)
	}
}
