// Package grid implements the layout engine behind the dashboard's data
// tables: hierarchical column flattening, windowed row virtualization, and
// the sort and column-drag state machines. Nothing here renders; the
// managers are plain values owned by a single table instance.
package grid

import (
	"errors"
	"fmt"
)

// Fixed pins a leaf column to one edge of the table.
type Fixed string

const (
	FixedNone  Fixed = ""
	FixedLeft  Fixed = "left"
	FixedRight Fixed = "right"
)

// Align controls horizontal placement of a cell's text.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Record is one row of table data, keyed by Column.DataIndex.
type Record map[string]any

// Renderer formats a cell value for display. index is the row's absolute
// position in the displayed data.
type Renderer interface {
	Render(value any, rec Record, index int) string
}

// RenderFunc adapts a plain function to Renderer.
type RenderFunc func(value any, rec Record, index int) string

// Render calls f.
func (f RenderFunc) Render(value any, rec Record, index int) string {
	return f(value, rec, index)
}

// Column is a node of the column schema tree. A node with children is a
// pure grouping header; a node without children (nil or empty) is a leaf
// bound to DataIndex.
type Column struct {
	Key       string
	Title     string
	DataIndex string
	Width     int
	Fixed     Fixed
	Align     Align
	Children  []Column

	// Sortable enables the default comparator. A non-nil Comparator makes
	// the column sortable on its own.
	Sortable   bool
	Comparator Comparator

	Draggable bool

	// Render formats cell values; nil means fmt-style default formatting.
	Render Renderer
}

// IsLeaf reports whether c maps directly to data. An empty Children slice
// counts as a leaf.
func (c Column) IsLeaf() bool {
	return len(c.Children) == 0
}

// IsSortable reports whether the column can be sorted.
func (c Column) IsSortable() bool {
	return c.Sortable || c.Comparator != nil
}

// FlatColumn is a schema node with its computed header layout.
type FlatColumn struct {
	Column

	ColSpan int // descendant leaf count, 1 for leaves
	RowSpan int // maxLevel-level for leaves, 1 for groups
	Level   int // 0-based depth

	// SpanWidth is the summed width of all descendant leaves (Width for a
	// leaf). Group widths in the schema are informational only.
	SpanWidth int

	Index  int // position in ColumnManager.Columns
	Parent int // index of the parent in ColumnManager.Columns, -1 for roots
	Root   int // index of the top-level ancestor in the schema slice
}

// ColumnManager derives the render-ready layout of a column schema. It is
// immutable once built; create a new one whenever the schema changes.
type ColumnManager struct {
	schema   []Column
	flat     []FlatColumn
	leaves   []int
	rows     [][]int
	maxLevel int
}

// NewColumnManager flattens schema. It never fails; use Validate to report
// malformed schemas.
func NewColumnManager(schema []Column) *ColumnManager {
	m := &ColumnManager{schema: schema}
	for _, c := range schema {
		if d := depth(c) + 1; d > m.maxLevel {
			m.maxLevel = d
		}
	}
	m.rows = make([][]int, m.maxLevel)
	for i, c := range schema {
		m.flatten(c, 0, -1, i)
	}
	return m
}

// depth returns the 0-based level of the deepest leaf under c, relative to c.
func depth(c Column) int {
	d := 0
	for _, child := range c.Children {
		if cd := depth(child) + 1; cd > d {
			d = cd
		}
	}
	return d
}

// flatten appends c and its subtree in pre-order and returns c's
// (colSpan, spanWidth).
func (m *ColumnManager) flatten(c Column, level, parent, root int) (int, int) {
	idx := len(m.flat)
	m.flat = append(m.flat, FlatColumn{
		Column: c,
		Level:  level,
		Index:  idx,
		Parent: parent,
		Root:   root,
	})
	m.rows[level] = append(m.rows[level], idx)

	if c.IsLeaf() {
		m.leaves = append(m.leaves, idx)
		fc := &m.flat[idx]
		fc.ColSpan = 1
		fc.RowSpan = m.maxLevel - level
		fc.SpanWidth = c.Width
		return 1, c.Width
	}

	span, width := 0, 0
	for _, child := range c.Children {
		s, w := m.flatten(child, level+1, idx, root)
		span += s
		width += w
	}
	fc := &m.flat[idx]
	fc.ColSpan = span
	fc.RowSpan = 1
	fc.SpanWidth = width
	return span, width
}

// Schema returns the schema the manager was built from.
func (m *ColumnManager) Schema() []Column { return m.schema }

// Columns returns every flattened node in depth-first pre-order.
func (m *ColumnManager) Columns() []FlatColumn { return m.flat }

// Parent returns the parent of c, if any.
func (m *ColumnManager) Parent(c FlatColumn) (FlatColumn, bool) {
	if c.Parent < 0 || c.Parent >= len(m.flat) {
		return FlatColumn{}, false
	}
	return m.flat[c.Parent], true
}

// Ancestor returns the node covering leaf at the given header level: the
// ancestor at that level, or the leaf itself when it sits above level.
func (m *ColumnManager) Ancestor(leaf FlatColumn, level int) FlatColumn {
	c := leaf
	for c.Level > level && c.Parent >= 0 {
		c = m.flat[c.Parent]
	}
	return c
}

// Lookup finds a flattened column by key.
func (m *ColumnManager) Lookup(key string) (FlatColumn, bool) {
	for _, c := range m.flat {
		if c.Key == key {
			return c, true
		}
	}
	return FlatColumn{}, false
}

// LeafColumns returns every leaf in depth-first left-to-right order.
func (m *ColumnManager) LeafColumns() []FlatColumn {
	return m.pick(m.leaves, func(FlatColumn) bool { return true })
}

// HeaderRows returns the flattened columns grouped by level.
func (m *ColumnManager) HeaderRows() [][]FlatColumn {
	rows := make([][]FlatColumn, len(m.rows))
	for i, r := range m.rows {
		rows[i] = m.pick(r, func(FlatColumn) bool { return true })
	}
	return rows
}

// FixedLeftColumns returns the leaves declaring Fixed left.
func (m *ColumnManager) FixedLeftColumns() []FlatColumn {
	return m.pick(m.leaves, func(c FlatColumn) bool { return c.Fixed == FixedLeft })
}

// FixedRightColumns returns the leaves declaring Fixed right.
func (m *ColumnManager) FixedRightColumns() []FlatColumn {
	return m.pick(m.leaves, func(c FlatColumn) bool { return c.Fixed == FixedRight })
}

// NormalColumns returns the leaves that scroll horizontally.
func (m *ColumnManager) NormalColumns() []FlatColumn {
	return m.pick(m.leaves, func(c FlatColumn) bool {
		return c.Fixed != FixedLeft && c.Fixed != FixedRight
	})
}

// MaxLevel is the depth of the deepest leaf plus one; 0 for an empty schema.
func (m *ColumnManager) MaxLevel() int { return m.maxLevel }

// TotalWidth sums the widths of all leaves.
func (m *ColumnManager) TotalWidth() int { return sumWidth(m.LeafColumns()) }

// FixedLeftWidth sums the widths of the fixed-left leaves.
func (m *ColumnManager) FixedLeftWidth() int { return sumWidth(m.FixedLeftColumns()) }

// FixedRightWidth sums the widths of the fixed-right leaves.
func (m *ColumnManager) FixedRightWidth() int { return sumWidth(m.FixedRightColumns()) }

func (m *ColumnManager) pick(idx []int, keep func(FlatColumn) bool) []FlatColumn {
	out := make([]FlatColumn, 0, len(idx))
	for _, i := range idx {
		if keep(m.flat[i]) {
			out = append(out, m.flat[i])
		}
	}
	return out
}

func sumWidth(cols []FlatColumn) int {
	total := 0
	for _, c := range cols {
		total += c.Width
	}
	return total
}

var (
	// ErrDuplicateKey is reported when two schema nodes share a Key.
	ErrDuplicateKey = errors.New("duplicate column key")
	// ErrInvalidWidth is reported for a leaf whose Width is not positive.
	ErrInvalidWidth = errors.New("column width must be positive")
	// ErrEmptyKey is reported for a node without a Key.
	ErrEmptyKey = errors.New("column key is empty")
)

// Validate checks schema for problems the layout tolerates but callers
// usually want to know about. All problems are joined into one error.
func Validate(schema []Column) error {
	seen := make(map[string]bool)
	var errs []error
	var walk func(cols []Column, path string)
	walk = func(cols []Column, path string) {
		for i, c := range cols {
			where := fmt.Sprintf("%s[%d]", path, i)
			switch {
			case c.Key == "":
				errs = append(errs, fmt.Errorf("%s: %w", where, ErrEmptyKey))
			case seen[c.Key]:
				errs = append(errs, fmt.Errorf("%s %q: %w", where, c.Key, ErrDuplicateKey))
			default:
				seen[c.Key] = true
			}
			if c.IsLeaf() && c.Width <= 0 {
				errs = append(errs, fmt.Errorf("%s %q: %w (got %d)", where, c.Key, ErrInvalidWidth, c.Width))
			}
			walk(c.Children, where+".children")
		}
	}
	walk(schema, "columns")
	return errors.Join(errs...)
}

// RowKeyFunc derives a stable identity for a record.
type RowKeyFunc func(rec Record, index int) string

// DefaultRowKey uses the record's "key" field and falls back to the row
// index when the field is absent.
func DefaultRowKey(rec Record, index int) string {
	if v, ok := rec["key"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("#%d", index)
}
