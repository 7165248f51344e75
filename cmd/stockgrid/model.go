package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockgrid/internal/config"
	"stockgrid/internal/dashboard"
	"stockgrid/internal/domain"
	"stockgrid/internal/grid"
	"stockgrid/internal/gridview"
	"stockgrid/internal/indicator"
	"stockgrid/internal/source"
	"stockgrid/internal/store"
)

// Styles.
var (
	tierActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	tierModerateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tierSporadicStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	symbolStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	symbolWlStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")) // orange for watchlist
	gainStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	turnoverStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	labelStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	klineBarStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")) // black on yellow
	errStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
)

func tierStyle(name string) lipgloss.Style {
	switch name {
	case dashboard.TierActive:
		return tierActiveStyle
	case dashboard.TierModerate:
		return tierModerateStyle
	case dashboard.TierSporadic:
		return tierSporadicStyle
	default:
		return lipgloss.NewStyle()
	}
}

func signStyle(v any) lipgloss.Style {
	f, _ := v.(float64)
	switch {
	case f > 0:
		return gainStyle
	case f < 0:
		return lossStyle
	default:
		return dimStyle
	}
}

// quoteCellStyle colours the stock list.
func quoteCellStyle(col grid.Column, rec grid.Record) lipgloss.Style {
	switch col.DataIndex {
	case "symbol":
		if w, _ := rec["watched"].(bool); w {
			return symbolWlStyle
		}
		return symbolStyle
	case "watched":
		return symbolWlStyle
	case "change", "change_pct":
		return signStyle(rec[col.DataIndex])
	case "price":
		return priceStyle
	case "turnover":
		return turnoverStyle
	case "tier":
		t, _ := rec["tier"].(string)
		return tierStyle(t)
	}
	return lipgloss.NewStyle()
}

// klineCellStyle colours a candle by its direction.
func klineCellStyle(col grid.Column, rec grid.Record) lipgloss.Style {
	switch col.DataIndex {
	case "open", "high", "low", "close":
		o, _ := rec["open"].(float64)
		c, _ := rec["close"].(float64)
		return signStyle(c - o)
	case "date":
		return symbolStyle
	}
	return lipgloss.NewStyle()
}

type viewMode int

const (
	viewQuotes viewMode = iota
	viewKLine
)

// Messages.
type quotesLoadedMsg struct {
	quotes  []domain.Quote
	watched []string
	err     error
}

type barsLoadedMsg struct {
	symbol string
	market domain.Market
	bars   []domain.Bar
	err    error
}

type rowClickedMsg struct {
	view  viewMode
	rec   grid.Record
	index int
}

type columnsChangedMsg struct {
	view    viewMode
	columns []grid.Column
}

type watchlistToggleMsg struct {
	symbol string
	added  bool
	err    error
}

type reloadMsg struct{}

// deps are the collaborators the model loads data through.
type deps struct {
	cfg        *config.Config
	logger     *slog.Logger
	barStore   *store.ParquetStore
	quoteStore store.QuoteStore
	watchStore store.WatchlistStore
	fetchers   map[domain.Market]source.BarSource // fill in symbols without bars
	registry   *indicator.Registry
	reload     <-chan struct{}
	market     domain.Market // "" lists every market
}

type model struct {
	deps

	mode   viewMode
	quotes gridview.Model
	kline  gridview.Model

	quoteData []domain.Quote
	watched   map[string]bool
	tiers     map[string]string
	breadth   dashboard.Breadth

	symbol     string
	symMarket  domain.Market
	barData    []domain.Bar
	barStats   dashboard.BarStats
	loading    bool
	showDetail bool
	detail     viewport.Model

	status        string
	err           error
	ready         bool
	width, height int
}

func initialModel(d deps) model {
	frame := time.Duration(d.cfg.Grid.FrameMillis) * time.Millisecond
	table := func(view viewMode, name string, cols []grid.Column, style func(grid.Column, grid.Record) lipgloss.Style) gridview.Model {
		return gridview.New(gridview.Config{
			Columns:       cols,
			RowHeight:     d.cfg.Grid.RowHeight,
			HeaderHeight:  d.cfg.Grid.HeaderHeight,
			FrameInterval: frame,
			CellStyle:     style,
			Logger:        d.logger.With("table", name),
			OnRowClick: func(rec grid.Record, index int) tea.Cmd {
				return func() tea.Msg { return rowClickedMsg{view: view, rec: rec, index: index} }
			},
			OnColumnsChange: func(cols []grid.Column) tea.Cmd {
				return func() tea.Msg { return columnsChangedMsg{view: view, columns: cols} }
			},
		})
	}
	return model{
		deps:    d,
		quotes:  table(viewQuotes, "quotes", dashboard.QuoteColumns(), quoteCellStyle),
		kline:   table(viewKLine, "kline", dashboard.KLineColumns(), klineCellStyle),
		watched: make(map[string]bool),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadQuotesCmd(), m.waitForReload()}
	if m.symbol != "" {
		cmds = append(cmds, m.loadBarsCmd(m.symbol, m.symMarket))
	}
	return tea.Batch(cmds...)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m model) loadQuotesCmd() tea.Cmd {
	qs, ws, mkt := m.quoteStore, m.watchStore, m.market
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		quotes, err := qs.ListQuotes(ctx, mkt)
		if err != nil {
			return quotesLoadedMsg{err: err}
		}
		watched, err := ws.Watchlist(ctx)
		return quotesLoadedMsg{quotes: quotes, watched: watched, err: err}
	}
}

// loadBarsCmd reads the full K-line history of symbol, fetching it from
// the bar source first when the store has none.
func (m model) loadBarsCmd(symbol string, mkt domain.Market) tea.Cmd {
	bs, src, days := m.barStore, m.fetchers[mkt], m.cfg.Market.MockDays
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		bars, err := bs.ReadAllBars(ctx, mkt, symbol)
		if err != nil || len(bars) > 0 || src == nil {
			return barsLoadedMsg{symbol: symbol, market: mkt, bars: bars, err: err}
		}

		end := time.Now().UTC().Truncate(24 * time.Hour)
		start := end.AddDate(0, 0, -days*7/5)
		if _, err := source.Sync(ctx, src, bs, mkt, []string{symbol}, start, end, 1); err != nil {
			return barsLoadedMsg{symbol: symbol, market: mkt, err: err}
		}
		bars, err = bs.ReadAllBars(ctx, mkt, symbol)
		return barsLoadedMsg{symbol: symbol, market: mkt, bars: bars, err: err}
	}
}

// waitForReload blocks until the data directory changes.
func (m model) waitForReload() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	c := m.reload
	return func() tea.Msg {
		if _, ok := <-c; !ok {
			return nil
		}
		return reloadMsg{}
	}
}

func (m model) toggleWatchCmd(symbol string, add bool) tea.Cmd {
	ws := m.watchStore
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		if add {
			err = ws.AddToWatchlist(ctx, symbol)
		} else {
			err = ws.RemoveFromWatchlist(ctx, symbol)
		}
		return watchlistToggleMsg{symbol: symbol, added: add, err: err}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			switch {
			case m.showDetail:
				m.showDetail = false
			case m.mode == viewKLine:
				m.mode = viewQuotes
			}
			return m, nil
		case "r":
			m.status = "reloading"
			if m.mode == viewKLine {
				return m, m.loadBarsCmd(m.symbol, m.symMarket)
			}
			return m, m.loadQuotesCmd()
		case " ":
			if m.mode == viewQuotes && !m.showDetail {
				return m, m.toggleSelectedWatch()
			}
		}
		if m.showDetail {
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		footerH := 1
		tableH := max(m.height-headerH-footerH, 1)
		m.quotes.SetSize(m.width, tableH)
		m.kline.SetSize(m.width, tableH)
		if !m.ready {
			m.detail = viewport.New(m.width, tableH)
			m.detail.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.detail.Width = m.width
			m.detail.Height = tableH
		}
		return m, nil

	case tea.MouseMsg:
		if m.showDetail {
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		// Table coordinates start below the header bar.
		msg.Y--
		return m.updateTable(msg)

	case quotesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("loading quotes", "error", msg.err)
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.quoteData = msg.quotes
		m.watched = make(map[string]bool, len(msg.watched))
		for _, s := range msg.watched {
			m.watched[s] = true
		}
		m.tiers = dashboard.AssignTiers(m.quoteData)
		m.breadth = dashboard.ComputeBreadth(m.quoteData)
		m.refreshQuotes()
		m.logger.Info("quotes loaded", "rows", len(msg.quotes), "watched", len(msg.watched))
		return m, nil

	case barsLoadedMsg:
		if msg.symbol != m.symbol {
			m.logger.Debug("dropping bars of a symbol no longer shown", "symbol", msg.symbol, "error", msg.err)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("loading bars", "symbol", msg.symbol, "error", msg.err)
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.barData = msg.bars
		m.barStats = dashboard.AggregateBars(msg.bars)
		m.kline.SetRows(dashboard.BarRows(msg.bars, m.registry))
		if len(msg.bars) > 0 && m.kline.SelectedKey() == "" {
			// Start on the latest candle.
			m.kline.SetSelectedKey(msg.bars[len(msg.bars)-1].Timestamp.Format("2006-01-02"))
		}
		m.logger.Info("bars loaded", "symbol", msg.symbol, "bars", len(msg.bars))
		return m, nil

	case rowClickedMsg:
		return m.handleRowClick(msg)

	case columnsChangedMsg:
		keys := make([]string, len(msg.columns))
		for i, c := range msg.columns {
			keys[i] = c.Key
		}
		m.logger.Info("columns reordered", "view", msg.view, "order", strings.Join(keys, ","))
		return m, nil

	case watchlistToggleMsg:
		if msg.err != nil {
			m.logger.Warn("watchlist toggle failed", "symbol", msg.symbol, "error", msg.err)
			// Revert optimistic update.
			if msg.added {
				delete(m.watched, msg.symbol)
			} else {
				m.watched[msg.symbol] = true
			}
			m.refreshQuotes()
		} else {
			m.logger.Info("watchlist toggled", "symbol", msg.symbol, "added", msg.added)
		}
		return m, nil

	case reloadMsg:
		m.logger.Debug("data directory changed")
		cmds := []tea.Cmd{m.waitForReload(), m.loadQuotesCmd()}
		if m.symbol != "" {
			cmds = append(cmds, m.loadBarsCmd(m.symbol, m.symMarket))
		}
		return m, tea.Batch(cmds...)
	}

	if m.showDetail {
		return m, nil
	}
	return m.updateTable(msg)
}

// updateTable forwards msg to the table on screen. Frame messages reach
// both tables; each drops the ones it did not schedule.
func (m model) updateTable(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case isInput(msg) && m.mode == viewQuotes:
		m.quotes, cmd = m.quotes.Update(msg)
	case isInput(msg):
		m.kline, cmd = m.kline.Update(msg)
	default:
		var c1, c2 tea.Cmd
		m.quotes, c1 = m.quotes.Update(msg)
		m.kline, c2 = m.kline.Update(msg)
		cmd = tea.Batch(c1, c2)
	}
	return m, cmd
}

func isInput(msg tea.Msg) bool {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		return true
	}
	return false
}

func (m *model) refreshQuotes() {
	m.quotes.SetRows(dashboard.QuoteRows(m.quoteData, m.tiers, m.watched))
}

// toggleSelectedWatch flips the selected symbol's watchlist membership
// right away and persists it in the background.
func (m *model) toggleSelectedWatch() tea.Cmd {
	rec, _, ok := m.quotes.Selected()
	if !ok {
		return nil
	}
	sym, _ := rec["symbol"].(string)
	if sym == "" {
		return nil
	}
	if m.watched[sym] {
		delete(m.watched, sym)
		m.refreshQuotes()
		return m.toggleWatchCmd(sym, false)
	}
	m.watched[sym] = true
	m.refreshQuotes()
	return m.toggleWatchCmd(sym, true)
}

func (m model) handleRowClick(msg rowClickedMsg) (tea.Model, tea.Cmd) {
	switch msg.view {
	case viewQuotes:
		sym, _ := msg.rec["symbol"].(string)
		mkt, _ := msg.rec["market"].(string)
		if sym == "" {
			return m, nil
		}
		m.logger.Info("opening K-line", "symbol", sym, "row", msg.index)
		m.mode = viewKLine
		if sym == m.symbol && !m.loading {
			return m, nil
		}
		m.symbol = sym
		m.symMarket = domain.Market(mkt)
		m.loading = true
		m.status = "loading " + sym
		m.barData = nil
		m.kline.SetSelectedKey("")
		m.kline.SetRows(nil)
		return m, m.loadBarsCmd(m.symbol, m.symMarket)

	case viewKLine:
		m.detail.SetContent(m.renderDetail(msg.rec, msg.index))
		m.detail.GotoTop()
		m.showDetail = true
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var headerBar string
	if m.mode == viewKLine {
		headerText := fmt.Sprintf(" %s  %s    bars: %s", m.symbol, strings.ToUpper(string(m.symMarket)),
			dashboard.FormatInt(int64(len(m.barData))))
		if len(m.barData) > 0 {
			first, last := m.barData[0].Timestamp, m.barData[len(m.barData)-1].Timestamp
			headerText += fmt.Sprintf("    %s..%s    range: %s    high: %s  low: %s",
				first.Format("2006-01-02"), last.Format("2006-01-02"),
				dashboard.FormatPercent(m.barStats.Change()),
				dashboard.FormatPrice(m.barStats.High), dashboard.FormatPrice(m.barStats.Low))
		}
		headerText += "    sort: " + sortLabel(m.kline.SortState()) + " "
		headerBar = klineBarStyle.Render(padOrTrunc(headerText, m.width))
	} else {
		counts := dashboard.TierCounts(m.tiers)
		headerText := fmt.Sprintf(
			" stockgrid  %s    symbols: %s  up: %s  down: %s  flat: %s    turnover: %s    active: %d    sort: %s ",
			marketLabel(m.market),
			dashboard.FormatInt(int64(len(m.quoteData))),
			dashboard.FormatInt(int64(m.breadth.Up)),
			dashboard.FormatInt(int64(m.breadth.Down)),
			dashboard.FormatInt(int64(m.breadth.Flat)),
			dashboard.FormatTurnover(m.breadth.Turnover),
			counts[dashboard.TierActive],
			sortLabel(m.quotes.SortState()),
		)
		headerBar = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Render(padOrTrunc(headerText, m.width))
	}

	var body string
	var pct float64
	switch {
	case m.showDetail:
		body = m.detail.View()
		pct = m.detail.ScrollPercent()
	case m.mode == viewKLine:
		body = m.kline.View()
		pct = m.kline.ScrollPercent()
	default:
		body = m.quotes.View()
		pct = m.quotes.ScrollPercent()
	}

	footerLeft := " q quit  s sort  </> move col  enter open  esc back  r reload"
	if m.mode == viewQuotes {
		footerLeft += "  space watch"
	}
	footerRight := fmt.Sprintf("%.0f%% ", pct*100)
	if m.status != "" {
		footerRight = m.status + "  " + footerRight
	}
	gap := max(m.width-len(footerLeft)-len(footerRight), 0)
	footerText := footerLeft + strings.Repeat(" ", gap) + footerRight
	footerBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("8")).
		Render(padOrTrunc(footerText, m.width))
	if err := m.tableErr(); err != nil {
		footerBar = errStyle.Render(padOrTrunc(" error: "+err.Error(), m.width))
	}

	return headerBar + "\n" + body + "\n" + footerBar
}

func (m model) tableErr() error {
	if m.err != nil {
		return m.err
	}
	if m.mode == viewKLine {
		return m.kline.Err()
	}
	return m.quotes.Err()
}

// renderDetail describes one candle and the indicator values on that day,
// followed by statistics over the loaded range up to it.
func (m model) renderDetail(rec grid.Record, index int) string {
	var b strings.Builder
	date, _ := rec["date"].(time.Time)
	b.WriteString(labelStyle.Width(m.width).Render(fmt.Sprintf(" %s  %s  #%d ", m.symbol, date.Format("Mon 2006-01-02"), index+1)))
	b.WriteString("\n\n")

	field := func(name, value string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %-12s", name)))
		b.WriteString(style.Render(value))
		b.WriteString("\n")
	}
	for _, k := range []string{"open", "high", "low", "close", "vwap"} {
		v, _ := rec[k].(float64)
		field(k, dashboard.FormatPrice(v), priceStyle)
	}
	vol, _ := rec["volume"].(int64)
	field("volume", dashboard.FormatInt(vol), turnoverStyle)

	var studies []string
	for k := range rec {
		if !slices.Contains(baseFields, k) {
			studies = append(studies, k)
		}
	}
	slices.Sort(studies)
	if len(studies) > 0 {
		b.WriteString("\n")
		for _, k := range studies {
			v, _ := rec[k].(float64)
			if math.IsNaN(v) {
				field(k, "-", dimStyle)
				continue
			}
			field(k, dashboard.FormatNumber(v, 2), lipgloss.NewStyle())
		}
	}

	upTo := m.barData
	for i, bar := range m.barData {
		if bar.Timestamp.Equal(date) {
			upTo = m.barData[:i+1]
			break
		}
	}
	s := dashboard.AggregateBars(upTo)
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf(" range to date: %d bars ", s.Bars)))
	b.WriteString("\n\n")
	field("change", dashboard.FormatPercent(s.Change()), signStyle(s.Change()))
	field("high", dashboard.FormatPrice(s.High), priceStyle)
	field("low", dashboard.FormatPrice(s.Low), priceStyle)
	field("volume", dashboard.FormatInt(s.TotalVolume), turnoverStyle)
	field("turnover", dashboard.FormatTurnover(s.Turnover), turnoverStyle)
	field("max gain", dashboard.FormatPercent(s.MaxGain), gainStyle)
	field("max loss", dashboard.FormatPercent(-s.MaxLoss), lossStyle)
	return b.String()
}

var baseFields = []string{"key", "symbol", "date", "open", "high", "low", "close", "volume", "vwap"}

func sortLabel(st grid.SortState) string {
	switch st.Order {
	case grid.OrderAscend:
		return st.ColumnKey + " asc"
	case grid.OrderDescend:
		return st.ColumnKey + " desc"
	}
	return "none"
}

func marketLabel(mkt domain.Market) string {
	if mkt == "" {
		return "ALL"
	}
	return strings.ToUpper(string(mkt))
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}

func truncate(s string, width int) string {
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > width {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String()
}
