// Package gridview is a bubbletea table component built on the grid layout
// engine. It renders a multi-level header, fixed left and right panes and a
// horizontally scrolled middle pane, and only ever formats the rows inside
// the virtual window.
package gridview

import (
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockgrid/internal/grid"
)

// wheelStep is the number of rows one wheel notch scrolls.
const wheelStep = 3

// Config configures a Model. Heights are in terminal lines.
type Config struct {
	Columns []grid.Column
	Rows    []grid.Record
	RowKey  grid.RowKeyFunc

	RowHeight    int // lines per row, default 1
	HeaderHeight int // lines per header level, default 1
	Width        int
	Height       int // total height including the header

	// FrameInterval coalesces wheel and page scrolling: all scroll input
	// received within one interval is applied in a single update. Zero
	// applies scrolling immediately.
	FrameInterval time.Duration

	SelectedKey string

	// OnRowClick is called when a row is clicked or enter is pressed. index
	// is the row's position in the displayed (sorted) data.
	OnRowClick func(rec grid.Record, index int) tea.Cmd
	// OnColumnsChange receives the schema after a column was moved.
	OnColumnsChange func(columns []grid.Column) tea.Cmd
	// CellStyle picks the style of a body cell; nil renders plain text.
	CellStyle func(col grid.Column, rec grid.Record) lipgloss.Style

	Logger *slog.Logger
}

var lastID atomic.Int64

func nextID() int {
	return int(lastID.Add(1))
}

// frameMsg applies coalesced scroll input. Messages carrying an old token
// were superseded and are dropped.
type frameMsg struct {
	id    int
	token uint64
}

// Model is the table state. The zero value is not usable; call New.
type Model struct {
	id     int
	cfg    Config
	logger *slog.Logger

	columns []grid.Column
	cm      *grid.ColumnManager
	source  []grid.Record // host order
	rows    []grid.Record // display order
	index   map[string]int

	scroll *grid.VirtualScrollManager
	sorter *grid.SortManager
	drag   *grid.DragManager

	width, height int
	scrollTop     int
	scrollLeft    int

	pendingTop   int
	framePending bool
	frameToken   uint64

	selectedKey string
	cursor      int // display index of the selection, -1 when none
	activeLeaf  int // index into LeafColumns for keyboard sort and move

	// Mouse press on the header, used to tell clicks from drags.
	pressKey  string
	pressRoot int
	mouseDown bool

	err error
}

// New builds a Model from cfg.
func New(cfg Config) Model {
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = 1
	}
	if cfg.HeaderHeight <= 0 {
		cfg.HeaderHeight = 1
	}
	if cfg.RowKey == nil {
		cfg.RowKey = grid.DefaultRowKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		id:          nextID(),
		cfg:         cfg,
		logger:      logger,
		scroll:      grid.NewVirtualScrollManager(grid.ScrollConfig{RowHeight: cfg.RowHeight}),
		sorter:      grid.NewSortManager(),
		drag:        grid.NewDragManager(nil),
		selectedKey: cfg.SelectedKey,
		cursor:      -1,
		pressRoot:   grid.NoIndex,
	}
	m.SetColumns(cfg.Columns)
	m.SetRows(cfg.Rows)
	m.SetSize(cfg.Width, cfg.Height)
	return m
}

// ---------------------------------------------------------------------------
// Data and layout
// ---------------------------------------------------------------------------

// SetColumns replaces the schema. The column layout is recomputed once here
// and cached until the next call. A sort on a column that no longer exists
// is cleared.
func (m *Model) SetColumns(columns []grid.Column) {
	if err := grid.Validate(columns); err != nil {
		m.logger.Warn("column schema problems", "error", err)
	}
	m.columns = columns
	m.cm = grid.NewColumnManager(columns)
	m.drag.SetColumns(columns)
	if m.sorter.Reconcile(m.cm) {
		m.logger.Debug("sort cleared after schema change")
		m.applySort()
	}
	leaves := len(m.cm.LeafColumns())
	m.activeLeaf = min(max(m.activeLeaf, 0), max(leaves-1, 0))
	m.relayout()
}

// SetRows replaces the dataset and reapplies the active sort. The selection
// follows its row key.
func (m *Model) SetRows(rows []grid.Record) {
	m.source = rows
	m.applySort()
}

// SetSize resizes the table. It is a re-layout: the scroll position is kept
// and clamped to the new bounds.
func (m *Model) SetSize(width, height int) {
	m.width = max(width, 0)
	m.height = max(height, 0)
	m.relayout()
}

// SetSelectedKey selects the row with key, if present, and scrolls it into
// view.
func (m *Model) SetSelectedKey(key string) {
	m.selectedKey = key
	m.cursor = m.lookup(key)
	m.ensureVisible()
}

func (m *Model) headerLines() int {
	return m.cm.MaxLevel() * m.cfg.HeaderHeight
}

func (m *Model) bodyHeight() int {
	return max(0, m.height-m.headerLines())
}

// relayout pushes the current geometry into the scroll manager and clamps
// both scroll offsets.
func (m *Model) relayout() {
	m.scroll.UpdateConfig(
		grid.WithRowHeight(m.cfg.RowHeight),
		grid.WithTotalRows(len(m.rows)),
		grid.WithContainerHeight(m.bodyHeight()),
	)
	m.setScrollTop(m.scrollTop)
	m.scrollLeft = min(max(m.scrollLeft, 0), m.maxScrollLeft())
}

func (m *Model) applySort() {
	st := m.sorter.State()
	rows := m.source
	if st.ColumnKey != "" {
		col, ok := m.cm.Lookup(st.ColumnKey)
		if !ok {
			m.sorter.Reset()
		} else {
			sorted, err := m.sorter.SortData(m.source, col.Column, st.Order)
			if err != nil {
				// Keep the previous order visible and surface the error.
				m.err = err
				m.logger.Error("sorting rows", "column", st.ColumnKey, "order", st.Order, "error", err)
				if m.rows == nil {
					m.rows = m.source
				}
				m.reindex()
				return
			}
			rows = sorted
		}
	}
	m.err = nil
	m.rows = rows
	m.reindex()
}

// reindex rebuilds the key index of the displayed rows. Duplicate keys
// resolve to their first occurrence.
func (m *Model) reindex() {
	m.index = make(map[string]int, len(m.rows))
	for i, rec := range m.rows {
		k := m.cfg.RowKey(rec, i)
		if _, dup := m.index[k]; !dup {
			m.index[k] = i
		}
	}
	m.cursor = m.lookup(m.selectedKey)
	m.relayout()
}

func (m *Model) lookup(key string) int {
	if key == "" {
		return -1
	}
	if i, ok := m.index[key]; ok {
		return i
	}
	return -1
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Columns returns the current schema, including any moves made by the user.
func (m Model) Columns() []grid.Column { return m.columns }

// Rows returns the rows in display order.
func (m Model) Rows() []grid.Record { return m.rows }

// Layout returns the cached column layout.
func (m Model) Layout() *grid.ColumnManager { return m.cm }

// Selected returns the selected row and its display index.
func (m Model) Selected() (grid.Record, int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, -1, false
	}
	return m.rows[m.cursor], m.cursor, true
}

// SelectedKey returns the key of the selected row.
func (m Model) SelectedKey() string { return m.selectedKey }

// SortState returns the active sort.
func (m Model) SortState() grid.SortState { return m.sorter.State() }

// DragState returns the in-progress column drag, if any.
func (m Model) DragState() grid.DragState { return m.drag.State() }

// VisibleRange returns the rows currently materialized.
func (m Model) VisibleRange() grid.VisibleRange { return m.scroll.GetVisibleRange() }

// ScrollTop returns the vertical offset in lines.
func (m Model) ScrollTop() int { return m.scrollTop }

// ScrollLeft returns the horizontal offset of the middle pane in cells.
func (m Model) ScrollLeft() int { return m.scrollLeft }

// ScrollPercent reports how far the body is scrolled, from 0 to 1.
func (m Model) ScrollPercent() float64 {
	maxTop := m.scroll.MaxScrollTop()
	if maxTop == 0 {
		return 1
	}
	return float64(m.scrollTop) / float64(maxTop)
}

// Err returns the last sort error, cleared by the next successful sort.
func (m Model) Err() error { return m.err }

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Init implements the usual component contract; the table needs no startup
// command.
func (m Model) Init() tea.Cmd { return nil }

// Update handles keyboard, mouse and frame messages. Mouse coordinates are
// relative to the table's top-left corner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.id != m.id || msg.token != m.frameToken || !m.framePending {
			return m, nil
		}
		m.framePending = false
		m.setScrollTop(m.pendingTop)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		return m, m.scrollBy(-m.pageLines())
	case "pgdown":
		return m, m.scrollBy(m.pageLines())
	case "home", "g":
		m.moveCursorTo(0)
	case "end", "G":
		m.moveCursorTo(len(m.rows) - 1)
	case "left", "h":
		m.moveActive(-1)
	case "right", "l":
		m.moveActive(1)
	case "s":
		if leaf, ok := m.activeColumn(); ok {
			m.toggleSort(leaf)
		}
	case "<", ">":
		delta := -1
		if msg.String() == ">" {
			delta = 1
		}
		return m, m.moveActiveColumn(delta)
	case "enter":
		return m, m.clickSelected()
	}
	return m, nil
}

func (m *Model) pageLines() int {
	return max(m.bodyHeight()-m.cfg.RowHeight, m.cfg.RowHeight)
}

// scrollBy queues a scroll of delta lines relative to any scroll already
// pending in this frame.
func (m *Model) scrollBy(delta int) tea.Cmd {
	base := m.scrollTop
	if m.framePending {
		base = m.pendingTop
	}
	return m.scrollTo(base + delta)
}

// scrollTo records the target offset and schedules at most one frame.
func (m *Model) scrollTo(top int) tea.Cmd {
	if m.cfg.FrameInterval <= 0 {
		m.setScrollTop(top)
		return nil
	}
	m.pendingTop = m.scroll.ClampScrollTop(top)
	if m.framePending {
		return nil
	}
	m.framePending = true
	m.frameToken++
	id, token := m.id, m.frameToken
	return tea.Tick(m.cfg.FrameInterval, func(time.Time) tea.Msg {
		return frameMsg{id: id, token: token}
	})
}

// setScrollTop applies top immediately and drops any pending frame.
func (m *Model) setScrollTop(top int) {
	m.cancelFrame()
	m.scrollTop = m.scroll.ClampScrollTop(top)
	m.scroll.UpdateConfig(grid.WithScrollTop(m.scrollTop))
}

// cancelFrame drops pending scroll input; the scheduled frame becomes stale.
func (m *Model) cancelFrame() {
	if m.framePending {
		m.framePending = false
		m.frameToken++
	}
}

func (m *Model) moveCursor(delta int) {
	if m.cursor < 0 {
		// Start from the first row in view.
		m.moveCursorTo(m.scrollTop / m.cfg.RowHeight)
		return
	}
	m.moveCursorTo(m.cursor + delta)
}

func (m *Model) moveCursorTo(i int) {
	if len(m.rows) == 0 {
		return
	}
	m.cancelFrame()
	i = min(max(i, 0), len(m.rows)-1)
	m.cursor = i
	m.selectedKey = m.cfg.RowKey(m.rows[i], i)
	m.ensureVisible()
}

// ensureVisible scrolls the body so the selected row is fully visible.
func (m *Model) ensureVisible() {
	if m.cursor < 0 {
		return
	}
	line := m.cursor * m.cfg.RowHeight
	bodyH := m.bodyHeight()
	switch {
	case line < m.scrollTop:
		m.setScrollTop(line)
	case line+m.cfg.RowHeight > m.scrollTop+bodyH:
		m.setScrollTop(line + m.cfg.RowHeight - bodyH)
	}
}

func (m *Model) clickSelected() tea.Cmd {
	rec, idx, ok := m.Selected()
	if !ok || m.cfg.OnRowClick == nil {
		return nil
	}
	return m.cfg.OnRowClick(rec, idx)
}

// ---------------------------------------------------------------------------
// Columns: sort and move
// ---------------------------------------------------------------------------

func (m *Model) activeColumn() (grid.FlatColumn, bool) {
	leaves := m.cm.LeafColumns()
	if m.activeLeaf < 0 || m.activeLeaf >= len(leaves) {
		return grid.FlatColumn{}, false
	}
	return leaves[m.activeLeaf], true
}

// moveActive changes the keyboard column and scrolls the middle pane so
// the column is in view.
func (m *Model) moveActive(delta int) {
	leaves := m.cm.LeafColumns()
	if len(leaves) == 0 {
		return
	}
	m.activeLeaf = min(max(m.activeLeaf+delta, 0), len(leaves)-1)
	m.revealColumn(leaves[m.activeLeaf])
}

func (m *Model) revealColumn(leaf grid.FlatColumn) {
	x := 0
	found := false
	for _, c := range m.cm.NormalColumns() {
		if c.Index == leaf.Index {
			found = true
			break
		}
		x += c.Width
	}
	if !found {
		return
	}
	paneW := m.panes().normal
	switch {
	case x < m.scrollLeft:
		m.scrollLeft = x
	case x+leaf.Width > m.scrollLeft+paneW:
		m.scrollLeft = x + leaf.Width - paneW
	}
	m.scrollLeft = min(max(m.scrollLeft, 0), m.maxScrollLeft())
}

func (m *Model) toggleSort(leaf grid.FlatColumn) {
	if !leaf.IsLeaf() || !leaf.IsSortable() {
		return
	}
	order := m.sorter.ToggleSort(leaf.Key)
	m.logger.Debug("sort toggled", "column", leaf.Key, "order", order)
	m.applySort()
	m.ensureVisible()
}

// moveActiveColumn moves the top-level column holding the keyboard column
// one slot left or right.
func (m *Model) moveActiveColumn(delta int) tea.Cmd {
	leaf, ok := m.activeColumn()
	if !ok {
		return nil
	}
	src, dst := leaf.Root, leaf.Root+delta
	if !grid.IsDraggable(m.columns[src]) || !m.drag.CanDrop(src, dst) {
		return nil
	}
	key := leaf.Key
	m.drag.StartDrag(src)
	m.drag.UpdateDropTarget(dst)
	cmd := m.commitDrag()
	m.focusKey(key)
	return cmd
}

// commitDrag ends the drag in progress and adopts the reordered schema.
func (m *Model) commitDrag() tea.Cmd {
	next := m.drag.EndDrag()
	if next == nil {
		return nil
	}
	m.logger.Debug("columns reordered", "columns", len(next))
	m.SetColumns(next)
	if m.cfg.OnColumnsChange == nil {
		return nil
	}
	return m.cfg.OnColumnsChange(next)
}

// focusKey makes the leaf with key the keyboard column.
func (m *Model) focusKey(key string) {
	for i, c := range m.cm.LeafColumns() {
		if c.Key == key {
			m.activeLeaf = i
			m.revealColumn(c)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Mouse
// ---------------------------------------------------------------------------

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m, m.scrollBy(-wheelStep * m.cfg.RowHeight)
	case tea.MouseButtonWheelDown:
		return m, m.scrollBy(wheelStep * m.cfg.RowHeight)
	case tea.MouseButtonWheelLeft:
		m.scrollLeft = max(m.scrollLeft-wheelStep, 0)
		return m, nil
	case tea.MouseButtonWheelRight:
		m.scrollLeft = min(m.scrollLeft+wheelStep, m.maxScrollLeft())
		return m, nil
	}

	if msg.X < 0 || msg.Y < 0 || msg.X >= m.width || msg.Y >= m.height {
		if msg.Action == tea.MouseActionRelease {
			m.drag.Cancel()
			m.mouseDown = false
		}
		return m, nil
	}

	if msg.Y < m.headerLines() {
		return m.handleHeaderMouse(msg)
	}
	if msg.Action == tea.MouseActionRelease && m.mouseDown {
		// A header drag released over the body is abandoned.
		m.drag.Cancel()
		m.mouseDown = false
		return m, nil
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		line := m.scrollTop + msg.Y - m.headerLines()
		row := line / m.cfg.RowHeight
		if row >= len(m.rows) {
			return m, nil
		}
		m.moveCursorTo(row)
		if leaf, ok := m.leafAt(msg.X); ok {
			m.focusKey(leaf.Key)
		}
		return m, m.clickSelected()
	}
	return m, nil
}

// handleHeaderMouse sorts on click and moves top-level columns on drag.
func (m Model) handleHeaderMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	leaf, ok := m.leafAt(msg.X)
	if !ok {
		return m, nil
	}
	node := m.cm.Ancestor(leaf, msg.Y/m.cfg.HeaderHeight)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.mouseDown = true
		m.pressKey = node.Key
		m.pressRoot = leaf.Root
		if grid.IsDraggable(m.columns[leaf.Root]) {
			m.drag.StartDrag(leaf.Root)
		}
		return m, nil

	case tea.MouseActionMotion:
		if !m.mouseDown || !m.drag.State().IsDragging {
			return m, nil
		}
		src := m.drag.State().DragIndex
		if leaf.Root != src && m.drag.CanDrop(src, leaf.Root) {
			m.drag.UpdateDropTarget(leaf.Root)
		} else {
			m.drag.UpdateDropTarget(grid.NoIndex)
		}
		return m, nil

	case tea.MouseActionRelease:
		if !m.mouseDown {
			return m, nil
		}
		m.mouseDown = false
		st := m.drag.State()
		if st.IsDragging && st.DropIndex != grid.NoIndex && leaf.Root != m.pressRoot {
			key := leaf.Key
			cmd := m.commitDrag()
			m.focusKey(key)
			return m, cmd
		}
		m.drag.Cancel()
		if node.Key == m.pressKey {
			m.focusKey(leaf.Key)
			m.toggleSort(node)
		}
		return m, nil
	}
	return m, nil
}

// leafAt returns the leaf under column x of the table.
func (m *Model) leafAt(x int) (grid.FlatColumn, bool) {
	p := m.panes()
	switch {
	case x < p.left:
		return leafAtOffset(m.cm.FixedLeftColumns(), x)
	case x >= p.left+p.normal:
		return leafAtOffset(m.cm.FixedRightColumns(), x-p.left-p.normal)
	default:
		return leafAtOffset(m.cm.NormalColumns(), x-p.left+m.scrollLeft)
	}
}

func leafAtOffset(cols []grid.FlatColumn, x int) (grid.FlatColumn, bool) {
	if x < 0 {
		return grid.FlatColumn{}, false
	}
	for _, c := range cols {
		if x < c.Width {
			return c, true
		}
		x -= c.Width
	}
	return grid.FlatColumn{}, false
}

// paneWidths splits the table width between the three panes. Fixed panes
// take their full width first.
type paneWidths struct {
	left, normal, right int
}

func (m *Model) panes() paneWidths {
	left := min(m.cm.FixedLeftWidth(), m.width)
	right := min(m.cm.FixedRightWidth(), m.width-left)
	return paneWidths{left: left, normal: m.width - left - right, right: right}
}

func (m *Model) maxScrollLeft() int {
	return max(0, sumWidths(m.cm.NormalColumns())-m.panes().normal)
}

func sumWidths(cols []grid.FlatColumn) int {
	total := 0
	for _, c := range cols {
		total += c.Width
	}
	return total
}
