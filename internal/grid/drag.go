package grid

import "slices"

// NoIndex marks an unset drag or drop index.
const NoIndex = -1

// DragState is the transient state of a column reorder. It is never
// persisted and resets after every completed or cancelled drag.
type DragState struct {
	DragIndex  int
	DropIndex  int
	IsDragging bool
}

var idleDrag = DragState{DragIndex: NoIndex, DropIndex: NoIndex}

// DragManager reorders the top-level columns of a schema. Indices refer to
// positions in the slice passed to NewDragManager or SetColumns.
type DragManager struct {
	columns []Column
	state   DragState
}

// NewDragManager returns an idle manager over columns.
func NewDragManager(columns []Column) *DragManager {
	return &DragManager{columns: columns, state: idleDrag}
}

// Columns returns the schema the manager currently works on.
func (d *DragManager) Columns() []Column { return d.columns }

// SetColumns replaces the schema and cancels any drag in progress.
func (d *DragManager) SetColumns(columns []Column) {
	d.columns = columns
	d.state = idleDrag
}

// State returns the current drag state.
func (d *DragManager) State() DragState { return d.state }

// StartDrag begins dragging the column at index.
func (d *DragManager) StartDrag(index int) {
	d.state = DragState{DragIndex: index, DropIndex: NoIndex, IsDragging: true}
}

// UpdateDropTarget records the hovered drop position. It is ignored unless
// a drag is in progress.
func (d *DragManager) UpdateDropTarget(index int) {
	if !d.state.IsDragging {
		return
	}
	d.state.DropIndex = index
}

// Cancel abandons the current drag.
func (d *DragManager) Cancel() { d.state = idleDrag }

// EndDrag commits the drag. The dragged column is removed first and then
// inserted at DropIndex of the shortened slice. It returns the reordered
// schema, or nil when there was nothing to move. The manager adopts the
// returned schema and is idle afterwards.
func (d *DragManager) EndDrag() []Column {
	st := d.state
	d.state = idleDrag

	if st.DragIndex == NoIndex || st.DropIndex == NoIndex || st.DragIndex == st.DropIndex {
		return nil
	}
	if st.DragIndex < 0 || st.DragIndex >= len(d.columns) {
		return nil
	}

	moved := d.columns[st.DragIndex]
	next := slices.Delete(slices.Clone(d.columns), st.DragIndex, st.DragIndex+1)
	at := min(max(st.DropIndex, 0), len(next))
	next = slices.Insert(next, at, moved)

	d.columns = next
	return next
}

// CanDrop reports whether the column at source may be dropped at target.
// Fixed columns can neither move nor be displaced.
func (d *DragManager) CanDrop(source, target int) bool {
	if source == target {
		return false
	}
	if source < 0 || source >= len(d.columns) || target < 0 || target >= len(d.columns) {
		return false
	}
	return d.columns[source].Fixed == FixedNone && d.columns[target].Fixed == FixedNone
}

// IsDraggable reports whether col opted into dragging and is not fixed.
func IsDraggable(col Column) bool {
	return col.Draggable && col.Fixed == FixedNone
}
