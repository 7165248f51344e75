package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stockgrid/internal/config"
	"stockgrid/internal/domain"
	"stockgrid/internal/grid"
	"stockgrid/internal/indicator/builtins"
)

func testModel(t *testing.T) model {
	t.Helper()
	m := initialModel(deps{
		cfg:      config.Default(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry: builtins.Default(),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(quotesLoadedMsg{
		quotes: []domain.Quote{
			{Symbol: "AAA", Market: domain.MarketUS, Price: 10, PrevClose: 9, Volume: 1000},
			{Symbol: "BBB", Market: domain.MarketUS, Price: 20, PrevClose: 21, Volume: 500},
		},
		watched: []string{"AAA"},
	})
	return next.(model)
}

func TestViewFillsWindow(t *testing.T) {
	m := testModel(t)
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 24 {
		t.Fatalf("View has %d lines, want 24", len(lines))
	}
	if !strings.Contains(lines[0], "symbols: 2") {
		t.Errorf("header bar = %q, want symbol count", lines[0])
	}
}

func TestViewBeforeSize(t *testing.T) {
	m := initialModel(deps{
		cfg:      config.Default(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry: builtins.Default(),
	})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestQuoteRowClickOpensKLine(t *testing.T) {
	m := testModel(t)
	next, cmd := m.Update(rowClickedMsg{
		view: viewQuotes,
		rec:  grid.Record{"symbol": "BBB", "market": "us"},
	})
	got := next.(model)
	if got.mode != viewKLine {
		t.Errorf("mode = %v, want viewKLine", got.mode)
	}
	if got.symbol != "BBB" || got.symMarket != domain.MarketUS {
		t.Errorf("symbol = %s/%s, want BBB/us", got.symbol, got.symMarket)
	}
	if !got.loading || cmd == nil {
		t.Errorf("loading = %v, cmd = %v, want a bar load in flight", got.loading, cmd)
	}

	next, _ = got.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(model).mode != viewQuotes {
		t.Error("esc did not return to the quote list")
	}
}

func TestStaleBarsIgnored(t *testing.T) {
	m := testModel(t)
	m.mode, m.symbol, m.loading = viewKLine, "AAA", true
	next, _ := m.Update(barsLoadedMsg{symbol: "BBB", market: domain.MarketUS, bars: []domain.Bar{{Symbol: "BBB"}}})
	got := next.(model)
	if got.barData != nil {
		t.Errorf("barData = %v, want bars of another symbol dropped", got.barData)
	}
	if !got.loading {
		t.Error("loading cleared by another symbol's bars, want AAA still loading")
	}
}

func TestStaleBarsErrorIgnored(t *testing.T) {
	m := testModel(t)
	m.mode, m.symbol = viewKLine, "AAA"
	next, _ := m.Update(barsLoadedMsg{symbol: "BBB", market: domain.MarketUS, err: errors.New("fetch failed")})
	got := next.(model)
	if got.err != nil {
		t.Errorf("err = %v, want failed load of another symbol ignored", got.err)
	}
	lines := strings.Split(got.View(), "\n")
	if footer := lines[len(lines)-1]; strings.Contains(footer, "fetch failed") {
		t.Errorf("footer = %q, want no error", footer)
	}
}

func TestWatchlistToggleRevertsOnError(t *testing.T) {
	m := testModel(t)
	m.watched["BBB"] = true
	next, _ := m.Update(watchlistToggleMsg{symbol: "BBB", added: true, err: errors.New("disk full")})
	got := next.(model)
	if got.watched["BBB"] {
		t.Error("BBB still watched after failed add")
	}

	next, _ = got.Update(watchlistToggleMsg{symbol: "AAA", added: false, err: errors.New("disk full")})
	if !next.(model).watched["AAA"] {
		t.Error("AAA not restored after failed remove")
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	m := testModel(t)
	next, _ := m.Update(quotesLoadedMsg{err: errors.New("database is locked")})
	lines := strings.Split(next.(model).View(), "\n")
	if footer := lines[len(lines)-1]; !strings.Contains(footer, "database is locked") {
		t.Errorf("footer = %q, want the load error", footer)
	}
}

func TestPadOrTrunc(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abcd"},
		{"abc", 3, "abc"},
		{"中文字", 5, "中文"},
	}
	for _, tt := range tests {
		if got := padOrTrunc(tt.in, tt.width); got != tt.want {
			t.Errorf("padOrTrunc(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSortLabel(t *testing.T) {
	tests := []struct {
		st   grid.SortState
		want string
	}{
		{grid.SortState{}, "none"},
		{grid.SortState{ColumnKey: "price", Order: grid.OrderAscend}, "price asc"},
		{grid.SortState{ColumnKey: "price", Order: grid.OrderDescend}, "price desc"},
	}
	for _, tt := range tests {
		if got := sortLabel(tt.st); got != tt.want {
			t.Errorf("sortLabel(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}
