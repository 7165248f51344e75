package gridview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stockgrid/internal/grid"
)

// Styles.
var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	groupHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	sortedStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle      = lipgloss.NewStyle().Underline(true)
	dragStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	dropStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	highlightBG      = lipgloss.Color("236") // dark grey background
)

// hlStyle returns a copy of s with the highlight background applied when hl is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

// segment is one styled run of a pane line, positioned in pane columns.
type segment struct {
	x, width int
	text     string
	style    lipgloss.Style
}

// View renders the header and the visible rows. Every line is exactly the
// table width wide.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	p := m.panes()
	left := m.renderPane(m.cm.FixedLeftColumns(), 0, p.left)
	normal := m.renderPane(m.cm.NormalColumns(), m.scrollLeft, p.normal)
	right := m.renderPane(m.cm.FixedRightColumns(), 0, p.right)
	if len(m.rows) == 0 && len(normal) > m.headerLines() {
		empty := padWidth("  (no data)", p.normal)
		normal[m.headerLines()] = dimStyle.Render(cutWidth(empty, 0, p.normal))
	}

	blocks := make([]string, 0, 3)
	for _, pane := range [][]string{left, normal, right} {
		if len(pane) > 0 {
			blocks = append(blocks, strings.Join(pane, "\n"))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// renderPane renders the header and body lines of one pane. from is the
// horizontal scroll offset into the pane's columns. A zero-width pane
// renders nothing; a table shorter than its header shows the top header
// lines only.
func (m Model) renderPane(cols []grid.FlatColumn, from, width int) []string {
	if width <= 0 {
		return nil
	}
	lines := make([]string, 0, m.height)
	lines = append(lines, m.headerPane(cols, from, width)...)
	lines = append(lines, m.bodyPane(cols, from, width)...)
	return lines[:min(len(lines), m.height)]
}

// ---------------------------------------------------------------------------
// Header
// ---------------------------------------------------------------------------

// headerPane renders maxLevel header levels of HeaderHeight lines each.
// Consecutive leaves sharing an ancestor at a level merge into one cell
// spanning their widths; a leaf above the level leaves its cell blank so
// its title reads as spanning downwards.
func (m Model) headerPane(cols []grid.FlatColumn, from, width int) []string {
	st := m.sorter.State()
	drag := m.drag.State()
	active, _ := m.activeColumn()

	var lines []string
	for level := range m.cm.MaxLevel() {
		var segs []segment
		x := 0
		for i := 0; i < len(cols); {
			node := m.cm.Ancestor(cols[i], level)
			w := cols[i].Width
			j := i + 1
			for j < len(cols) && m.cm.Ancestor(cols[j], level).Index == node.Index {
				w += cols[j].Width
				j++
			}

			seg := segment{x: x, width: w, style: headerStyle}
			if node.Level == level {
				seg.text = fitCell(headerTitle(node, st), w, headerAlign(node))
				switch {
				case !node.IsLeaf():
					seg.style = groupHeaderStyle
				case node.Key == st.ColumnKey:
					seg.style = sortedStyle
				}
				if node.Index == active.Index {
					seg.style = seg.style.Inherit(activeStyle)
				}
			} else {
				seg.text = strings.Repeat(" ", w)
			}
			if drag.IsDragging && level == 0 {
				switch node.Root {
				case drag.DragIndex:
					seg.style = dragStyle
				case drag.DropIndex:
					seg.style = dropStyle
				}
			}
			segs = append(segs, seg)
			x += w
			i = j
		}

		title := renderSegments(segs, from, width)
		lines = append(lines, title)
		for range m.cfg.HeaderHeight - 1 {
			lines = append(lines, strings.Repeat(" ", width))
		}
	}
	return lines
}

func headerTitle(c grid.FlatColumn, st grid.SortState) string {
	title := c.Title
	if title == "" {
		title = c.Key
	}
	if c.Key == st.ColumnKey {
		switch st.Order {
		case grid.OrderAscend:
			title += " ▲"
		case grid.OrderDescend:
			title += " ▼"
		}
	}
	return title
}

func headerAlign(c grid.FlatColumn) grid.Align {
	if !c.IsLeaf() {
		return grid.AlignCenter
	}
	return c.Align
}

// ---------------------------------------------------------------------------
// Body
// ---------------------------------------------------------------------------

// bodyPane renders the visible range and crops it to the body height. The
// range starts OffsetY lines into the data, so the viewport begins
// scrollTop-OffsetY lines into the rendered block; missing lines at the
// end are blank.
func (m Model) bodyPane(cols []grid.FlatColumn, from, width int) []string {
	bodyH := m.bodyHeight()
	if bodyH == 0 {
		return nil
	}
	rng := m.scroll.GetVisibleRange()
	skip := m.scrollTop - rng.OffsetY
	blank := strings.Repeat(" ", width)

	lines := make([]string, 0, bodyH)
	for i := rng.Start; i < rng.End && len(lines) < bodyH; i++ {
		row := m.rowLines(cols, i, from, width)
		for _, l := range row {
			if skip > 0 {
				skip--
				continue
			}
			if len(lines) == bodyH {
				break
			}
			lines = append(lines, l)
		}
	}
	for len(lines) < bodyH {
		lines = append(lines, blank)
	}
	return lines
}

// rowLines renders row i. The cells go on the first line; the remaining
// RowHeight-1 lines are blank but keep the selection background.
func (m Model) rowLines(cols []grid.FlatColumn, i, from, width int) []string {
	rec := m.rows[i]
	hl := i == m.cursor

	segs := make([]segment, 0, len(cols))
	x := 0
	for _, c := range cols {
		style := lipgloss.NewStyle()
		if m.cfg.CellStyle != nil {
			style = m.cfg.CellStyle(c.Column, rec)
		}
		segs = append(segs, segment{
			x:     x,
			width: c.Width,
			text:  fitCell(cellText(c.Column, rec, i), c.Width, c.Align),
			style: hlStyle(style, hl),
		})
		x += c.Width
	}

	lines := []string{renderSegments(segs, from, width)}
	filler := hlStyle(lipgloss.NewStyle(), hl).Render(strings.Repeat(" ", width))
	for range m.cfg.RowHeight - 1 {
		lines = append(lines, filler)
	}
	return lines
}

// cellText formats the value of col in rec with the column's renderer.
func cellText(col grid.Column, rec grid.Record, index int) string {
	v := rec[col.DataIndex]
	var s string
	switch {
	case col.Render != nil:
		s = col.Render.Render(v, rec, index)
	case v == nil:
		s = ""
	default:
		s = fmt.Sprint(v)
	}
	return strings.ReplaceAll(s, "\n", " ")
}

// ---------------------------------------------------------------------------
// Text layout
// ---------------------------------------------------------------------------

// renderSegments clips segs to the pane window [from, from+width) and
// styles each visible part. The result is exactly width cells wide.
func renderSegments(segs []segment, from, width int) string {
	var b strings.Builder
	end := from + width
	used := 0
	for _, s := range segs {
		lo := max(s.x, from)
		hi := min(s.x+s.width, end)
		if lo >= hi {
			continue
		}
		b.WriteString(s.style.Render(cutWidth(s.text, lo-s.x, hi-lo)))
		used += hi - lo
	}
	if used < width {
		b.WriteString(strings.Repeat(" ", width-used))
	}
	return b.String()
}

// fitCell lays text out in a cell of width cells: truncated with an
// ellipsis, aligned within width-1 cells and followed by one space of
// gutter.
func fitCell(text string, width int, align grid.Align) string {
	if width <= 0 {
		return ""
	}
	inner := width - 1
	if inner == 0 {
		return " "
	}
	t := runewidth.Truncate(text, inner, "…")
	switch align {
	case grid.AlignRight:
		t = runewidth.FillLeft(t, inner)
	case grid.AlignCenter:
		pad := inner - runewidth.StringWidth(t)
		t = strings.Repeat(" ", pad/2) + t + strings.Repeat(" ", pad-pad/2)
	default:
		t = runewidth.FillRight(t, inner)
	}
	return t + " "
}

// cutWidth returns the width display cells of s starting at cell from. A
// wide rune cut by either edge is replaced by spaces so the result is
// always exactly width cells.
func cutWidth(s string, from, width int) string {
	var b strings.Builder
	end := from + width
	col := 0
	for _, r := range s {
		if col >= end {
			break
		}
		w := runewidth.RuneWidth(r)
		switch {
		case col >= from && col+w <= end:
			b.WriteRune(r)
		case col+w > from:
			b.WriteString(strings.Repeat(" ", min(col+w, end)-max(col, from)))
		}
		col += w
	}
	return padWidth(b.String(), width)
}

// padWidth pads s with spaces to width display cells.
func padWidth(s string, width int) string {
	if n := runewidth.StringWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
