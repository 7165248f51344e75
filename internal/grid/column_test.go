package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func keys(cols []FlatColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

func scenarioSchema() []Column {
	return []Column{
		{Key: "a", Title: "A", DataIndex: "a", Width: 100, Fixed: FixedLeft},
		{Key: "grp", Title: "G", DataIndex: "grp", Width: 200, Children: []Column{
			{Key: "b", DataIndex: "b", Width: 100, Title: "B"},
			{Key: "c", DataIndex: "c", Width: 100, Title: "C"},
		}},
	}
}

func TestColumnManagerScenario(t *testing.T) {
	cm := NewColumnManager(scenarioSchema())

	if got := cm.MaxLevel(); got != 2 {
		t.Errorf("MaxLevel() = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys(cm.LeafColumns())); diff != "" {
		t.Errorf("LeafColumns() mismatch (-want +got):\n%s", diff)
	}

	grp, ok := cm.Lookup("grp")
	if !ok {
		t.Fatal("Lookup(grp) not found")
	}
	if grp.ColSpan != 2 || grp.RowSpan != 1 {
		t.Errorf("grp span = (%d,%d), want (2,1)", grp.ColSpan, grp.RowSpan)
	}
	if grp.SpanWidth != 200 {
		t.Errorf("grp.SpanWidth = %d, want 200", grp.SpanWidth)
	}
	a, _ := cm.Lookup("a")
	if a.RowSpan != 2 || a.ColSpan != 1 {
		t.Errorf("a span = (%d,%d), want (1,2)", a.ColSpan, a.RowSpan)
	}
	b, _ := cm.Lookup("b")
	if b.RowSpan != 1 || b.Level != 1 {
		t.Errorf("b rowSpan=%d level=%d, want 1,1", b.RowSpan, b.Level)
	}

	if diff := cmp.Diff([]string{"a"}, keys(cm.FixedLeftColumns())); diff != "" {
		t.Errorf("FixedLeftColumns() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, keys(cm.NormalColumns())); diff != "" {
		t.Errorf("NormalColumns() mismatch (-want +got):\n%s", diff)
	}
	if got := cm.TotalWidth(); got != 300 {
		t.Errorf("TotalWidth() = %d, want 300", got)
	}
	if got := cm.FixedLeftWidth(); got != 100 {
		t.Errorf("FixedLeftWidth() = %d, want 100", got)
	}
	if got := cm.FixedRightWidth(); got != 0 {
		t.Errorf("FixedRightWidth() = %d, want 0", got)
	}
}

func TestColumnManagerParentLinks(t *testing.T) {
	cm := NewColumnManager(scenarioSchema())
	c, _ := cm.Lookup("c")
	p, ok := cm.Parent(c)
	if !ok || p.Key != "grp" {
		t.Fatalf("Parent(c) = %q,%v, want grp,true", p.Key, ok)
	}
	if _, ok := cm.Parent(p); ok {
		t.Error("Parent(grp) should not exist")
	}
	if c.Root != 1 {
		t.Errorf("c.Root = %d, want 1", c.Root)
	}
	if got := cm.Ancestor(c, 0).Key; got != "grp" {
		t.Errorf("Ancestor(c, 0) = %q, want grp", got)
	}
	a, _ := cm.Lookup("a")
	if got := cm.Ancestor(a, 1).Key; got != "a" {
		t.Errorf("Ancestor(a, 1) = %q, want a", got)
	}
}

func deepSchema() []Column {
	return []Column{
		{Key: "date", Width: 12, Fixed: FixedLeft},
		{Key: "ind", Children: []Column{
			{Key: "ma", Children: []Column{
				{Key: "ma5", Width: 8},
				{Key: "ma10", Width: 8},
				{Key: "ma20", Width: 8},
			}},
			{Key: "rsi", Width: 8},
			{Key: "kdj", Children: []Column{
				{Key: "k", Width: 6},
				{Key: "d", Width: 6},
			}},
		}},
		{Key: "vol", Width: 10, Fixed: FixedRight},
		{Key: "empty", Width: 5, Children: []Column{}},
	}
}

func TestColumnManagerSpanInvariant(t *testing.T) {
	for name, schema := range map[string][]Column{
		"scenario": scenarioSchema(),
		"deep":     deepSchema(),
	} {
		t.Run(name, func(t *testing.T) {
			cm := NewColumnManager(schema)
			leaves := cm.LeafColumns()

			sum := 0
			for _, l := range leaves {
				if l.ColSpan != 1 {
					t.Errorf("leaf %s ColSpan = %d, want 1", l.Key, l.ColSpan)
				}
				if l.Level+l.RowSpan != cm.MaxLevel() {
					t.Errorf("leaf %s level+rowSpan = %d, want %d", l.Key, l.Level+l.RowSpan, cm.MaxLevel())
				}
				sum += l.ColSpan
			}
			if sum != len(leaves) {
				t.Errorf("sum(leaf colSpan) = %d, want %d", sum, len(leaves))
			}

			all := cm.Columns()
			for _, c := range all {
				if c.IsLeaf() {
					continue
				}
				childSum := 0
				for _, o := range all {
					if o.Parent == c.Index {
						childSum += o.ColSpan
					}
				}
				if c.ColSpan != childSum {
					t.Errorf("group %s ColSpan = %d, children sum = %d", c.Key, c.ColSpan, childSum)
				}
				if c.RowSpan != 1 {
					t.Errorf("group %s RowSpan = %d, want 1", c.Key, c.RowSpan)
				}
			}

			rows := cm.HeaderRows()
			if len(rows) != cm.MaxLevel() {
				t.Fatalf("len(HeaderRows()) = %d, want %d", len(rows), cm.MaxLevel())
			}
			top := 0
			for _, c := range rows[0] {
				top += c.ColSpan
			}
			if top != len(leaves) {
				t.Errorf("sum(HeaderRows()[0] colSpan) = %d, want %d", top, len(leaves))
			}
		})
	}
}

func TestColumnManagerDeepLayout(t *testing.T) {
	cm := NewColumnManager(deepSchema())
	if got := cm.MaxLevel(); got != 3 {
		t.Fatalf("MaxLevel() = %d, want 3", got)
	}
	wantLeaves := []string{"date", "ma5", "ma10", "ma20", "rsi", "k", "d", "vol", "empty"}
	if diff := cmp.Diff(wantLeaves, keys(cm.LeafColumns())); diff != "" {
		t.Errorf("LeafColumns() mismatch (-want +got):\n%s", diff)
	}
	wantRows := [][]string{
		{"date", "ind", "vol", "empty"},
		{"ma", "rsi", "kdj"},
		{"ma5", "ma10", "ma20", "k", "d"},
	}
	for i, row := range cm.HeaderRows() {
		if diff := cmp.Diff(wantRows[i], keys(row)); diff != "" {
			t.Errorf("HeaderRows()[%d] mismatch (-want +got):\n%s", i, diff)
		}
	}
	rsi, _ := cm.Lookup("rsi")
	if rsi.RowSpan != 2 {
		t.Errorf("rsi.RowSpan = %d, want 2", rsi.RowSpan)
	}
	ind, _ := cm.Lookup("ind")
	if ind.ColSpan != 6 || ind.SpanWidth != 44 {
		t.Errorf("ind colSpan=%d spanWidth=%d, want 6, 44", ind.ColSpan, ind.SpanWidth)
	}
	if diff := cmp.Diff([]string{"vol"}, keys(cm.FixedRightColumns())); diff != "" {
		t.Errorf("FixedRightColumns() mismatch (-want +got):\n%s", diff)
	}
	if got := cm.TotalWidth(); got != 12+8*4+6*2+10+5 {
		t.Errorf("TotalWidth() = %d", got)
	}
}

func TestColumnManagerFixedIsPerLeaf(t *testing.T) {
	cm := NewColumnManager([]Column{
		{Key: "g", Fixed: FixedLeft, Children: []Column{
			{Key: "x", Width: 4},
			{Key: "y", Width: 4, Fixed: FixedLeft},
		}},
	})
	if diff := cmp.Diff([]string{"y"}, keys(cm.FixedLeftColumns())); diff != "" {
		t.Errorf("FixedLeftColumns() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, keys(cm.NormalColumns())); diff != "" {
		t.Errorf("NormalColumns() mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnManagerEmpty(t *testing.T) {
	cm := NewColumnManager(nil)
	if cm.MaxLevel() != 0 {
		t.Errorf("MaxLevel() = %d, want 0", cm.MaxLevel())
	}
	if len(cm.HeaderRows()) != 0 || len(cm.LeafColumns()) != 0 {
		t.Error("empty schema should have no header rows or leaves")
	}
	if cm.TotalWidth() != 0 || cm.FixedLeftWidth() != 0 || cm.FixedRightWidth() != 0 {
		t.Error("empty schema widths should all be 0")
	}
}

func TestColumnManagerEmptyChildrenIsLeaf(t *testing.T) {
	cm := NewColumnManager([]Column{{Key: "solo", DataIndex: "solo", Width: 7, Children: []Column{}}})
	if cm.MaxLevel() != 1 {
		t.Fatalf("MaxLevel() = %d, want 1", cm.MaxLevel())
	}
	leaves := cm.LeafColumns()
	if len(leaves) != 1 || leaves[0].ColSpan != 1 || leaves[0].RowSpan != 1 {
		t.Errorf("LeafColumns() = %+v, want one 1x1 leaf", leaves)
	}
	if cm.TotalWidth() != 7 {
		t.Errorf("TotalWidth() = %d, want 7", cm.TotalWidth())
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(deepSchema()); err != nil {
		t.Fatalf("Validate(deep) = %v, want nil", err)
	}

	err := Validate([]Column{
		{Key: "a", Width: 5},
		{Key: "a", Width: 0},
		{Key: "", Children: []Column{{Key: "b", Width: -1}}},
	})
	if err == nil {
		t.Fatal("Validate returned nil for broken schema")
	}
	for _, want := range []error{ErrDuplicateKey, ErrInvalidWidth, ErrEmptyKey} {
		if !errors.Is(err, want) {
			t.Errorf("Validate error %v does not wrap %v", err, want)
		}
	}
}

func TestDefaultRowKey(t *testing.T) {
	if got := DefaultRowKey(Record{"key": "AAPL"}, 3); got != "AAPL" {
		t.Errorf("DefaultRowKey = %q, want AAPL", got)
	}
	if got := DefaultRowKey(Record{"x": 1}, 3); got != "#3" {
		t.Errorf("DefaultRowKey = %q, want #3", got)
	}
}
