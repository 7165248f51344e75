package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func colKeys(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

func abcd() []Column {
	return []Column{
		{Key: "A", Width: 1, Draggable: true},
		{Key: "B", Width: 1, Draggable: true},
		{Key: "C", Width: 1, Draggable: true},
		{Key: "D", Width: 1, Draggable: true},
	}
}

func TestDragCommit(t *testing.T) {
	d := NewDragManager(abcd())
	d.StartDrag(0)
	d.UpdateDropTarget(2)
	got := d.EndDrag()
	if diff := cmp.Diff([]string{"B", "C", "A", "D"}, colKeys(got)); diff != "" {
		t.Errorf("EndDrag() mismatch (-want +got):\n%s", diff)
	}
	if d.State() != idleDrag {
		t.Errorf("State() = %+v after EndDrag, want idle", d.State())
	}
	if diff := cmp.Diff(colKeys(got), colKeys(d.Columns())); diff != "" {
		t.Errorf("manager did not adopt new order (-want +got):\n%s", diff)
	}
}

func TestDragCommitBackwards(t *testing.T) {
	d := NewDragManager(abcd())
	d.StartDrag(3)
	d.UpdateDropTarget(1)
	got := d.EndDrag()
	if diff := cmp.Diff([]string{"A", "D", "B", "C"}, colKeys(got)); diff != "" {
		t.Errorf("EndDrag() mismatch (-want +got):\n%s", diff)
	}
}

func TestDragNoDropTarget(t *testing.T) {
	cols := abcd()
	d := NewDragManager(cols)
	d.StartDrag(0)
	if got := d.EndDrag(); got != nil {
		t.Errorf("EndDrag() without drop target = %v, want nil", colKeys(got))
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, colKeys(d.Columns())); diff != "" {
		t.Errorf("columns changed (-want +got):\n%s", diff)
	}
}

func TestDragSameIndexAndOutOfRange(t *testing.T) {
	d := NewDragManager(abcd())
	d.StartDrag(1)
	d.UpdateDropTarget(1)
	if got := d.EndDrag(); got != nil {
		t.Errorf("EndDrag() onto itself = %v, want nil", colKeys(got))
	}

	d.StartDrag(9)
	d.UpdateDropTarget(0)
	if got := d.EndDrag(); got != nil {
		t.Errorf("EndDrag() from missing column = %v, want nil", colKeys(got))
	}
}

func TestUpdateDropTargetIgnoredWhenIdle(t *testing.T) {
	d := NewDragManager(abcd())
	d.UpdateDropTarget(2)
	if d.State() != idleDrag {
		t.Errorf("State() = %+v, want idle", d.State())
	}
	d.StartDrag(1)
	d.UpdateDropTarget(3)
	want := DragState{DragIndex: 1, DropIndex: 3, IsDragging: true}
	if d.State() != want {
		t.Errorf("State() = %+v, want %+v", d.State(), want)
	}
	d.Cancel()
	if d.State() != idleDrag {
		t.Errorf("State() = %+v after Cancel, want idle", d.State())
	}
}

func TestCanDropFixed(t *testing.T) {
	cols := []Column{
		{Key: "sym", Width: 1, Fixed: FixedLeft},
		{Key: "px", Width: 1, Draggable: true},
		{Key: "chg", Width: 1, Draggable: true},
		{Key: "vol", Width: 1, Fixed: FixedRight},
	}
	d := NewDragManager(cols)
	for i := range cols {
		for j := range cols {
			if i == j {
				if d.CanDrop(i, j) {
					t.Errorf("CanDrop(%d,%d) = true for equal indices", i, j)
				}
				continue
			}
			fixed := cols[i].Fixed != FixedNone || cols[j].Fixed != FixedNone
			if got := d.CanDrop(i, j); got == fixed {
				t.Errorf("CanDrop(%d,%d) = %v, fixed involved = %v", i, j, got, fixed)
			}
		}
	}
	if d.CanDrop(1, 7) || d.CanDrop(-1, 2) {
		t.Error("CanDrop accepted a missing column")
	}
}

func TestIsDraggable(t *testing.T) {
	tests := []struct {
		col  Column
		want bool
	}{
		{Column{Draggable: true}, true},
		{Column{}, false},
		{Column{Draggable: true, Fixed: FixedLeft}, false},
		{Column{Draggable: true, Fixed: FixedRight}, false},
	}
	for _, tt := range tests {
		if got := IsDraggable(tt.col); got != tt.want {
			t.Errorf("IsDraggable(%+v) = %v, want %v", tt.col, got, tt.want)
		}
	}
}
