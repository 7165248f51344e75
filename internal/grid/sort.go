package grid

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Order is a column's sort direction. OrderNone means unsorted.
type Order string

const (
	OrderNone    Order = ""
	OrderAscend  Order = "ascend"
	OrderDescend Order = "descend"
)

// ErrInvalidOrder is returned by SortData for an unknown Order value.
var ErrInvalidOrder = errors.New("invalid sort order")

// Comparator orders two records for a column. Compare returns a negative
// number when a sorts before b, zero when equal, positive otherwise.
type Comparator interface {
	Compare(a, b Record) (int, error)
}

// CompareFunc adapts a plain function to Comparator.
type CompareFunc func(a, b Record) (int, error)

// Compare calls f.
func (f CompareFunc) Compare(a, b Record) (int, error) { return f(a, b) }

// SortState is the single active sort. An empty ColumnKey means no column
// is sorted.
type SortState struct {
	ColumnKey string
	Order     Order
}

// SortManager tracks which column is sorted and in which direction. Only
// one column is sorted at a time.
type SortManager struct {
	state SortState
}

// NewSortManager returns a manager with no active sort.
func NewSortManager() *SortManager {
	return &SortManager{}
}

// State returns the current sort.
func (s *SortManager) State() SortState { return s.state }

// ToggleSort advances the sort cycle for key: a different column starts at
// ascend, ascend goes to descend, descend clears the sort. It returns the
// new order for key.
func (s *SortManager) ToggleSort(key string) Order {
	switch {
	case s.state.ColumnKey != key:
		s.state = SortState{ColumnKey: key, Order: OrderAscend}
	case s.state.Order == OrderAscend:
		s.state.Order = OrderDescend
	default:
		s.state = SortState{}
	}
	return s.state.Order
}

// Reset clears the active sort.
func (s *SortManager) Reset() { s.state = SortState{} }

// Reconcile clears the sort when its column no longer exists in cm or is
// no longer a leaf. It reports whether the state was reset.
func (s *SortManager) Reconcile(cm *ColumnManager) bool {
	if s.state.ColumnKey == "" {
		return false
	}
	if c, ok := cm.Lookup(s.state.ColumnKey); ok && c.IsLeaf() {
		return false
	}
	s.Reset()
	return true
}

// SortData returns data ordered by column. OrderNone returns data itself,
// unsorted and uncopied. Otherwise a sorted copy is returned and data is
// left untouched.
//
// The comparison is, in priority order: the column's Comparator; nil (and
// NaN) values last; strings lexicographically; numbers, times and bools by
// value. Descend sorts ascending and then reverses, so ties and nil values
// swap ends between the two directions.
//
// A Comparator error aborts the sort and is returned.
func (s *SortManager) SortData(data []Record, column Column, order Order) ([]Record, error) {
	switch order {
	case OrderNone:
		return data, nil
	case OrderAscend, OrderDescend:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}

	out := slices.Clone(data)
	var cmpErr error
	compare := func(a, b Record) int {
		if cmpErr != nil {
			return 0
		}
		if column.Comparator != nil {
			n, err := column.Comparator.Compare(a, b)
			if err != nil {
				cmpErr = err
				return 0
			}
			return n
		}
		return compareValues(a[column.DataIndex], b[column.DataIndex])
	}
	slices.SortStableFunc(out, compare)
	if cmpErr != nil {
		return nil, fmt.Errorf("sorting by column %q: %w", column.Key, cmpErr)
	}
	if order == OrderDescend {
		slices.Reverse(out)
	}
	return out, nil
}

// compareValues orders two cell values ascending with nil last.
func compareValues(a, b any) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	// Mixed or unknown types fall back to their printed form.
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
