package grid

// ScrollConfig holds the inputs of the row windowing calculation. Units are
// whatever the renderer measures in (pixels in a browser, lines in a
// terminal) as long as RowHeight, ScrollTop and ContainerHeight agree.
type ScrollConfig struct {
	RowHeight       int
	TotalRows       int
	VisibleRows     int // 0 derives it from ContainerHeight
	ScrollTop       int
	ContainerHeight int
}

// VisibleRange is the slice of rows to render. End is exclusive.
type VisibleRange struct {
	Start   int
	End     int
	OffsetY int
}

// Len returns the number of rows in the range.
func (r VisibleRange) Len() int { return r.End - r.Start }

// ScrollOption changes one ScrollConfig field in UpdateConfig.
type ScrollOption func(*ScrollConfig)

func WithRowHeight(h int) ScrollOption       { return func(c *ScrollConfig) { c.RowHeight = h } }
func WithTotalRows(n int) ScrollOption       { return func(c *ScrollConfig) { c.TotalRows = n } }
func WithVisibleRows(n int) ScrollOption     { return func(c *ScrollConfig) { c.VisibleRows = n } }
func WithScrollTop(top int) ScrollOption     { return func(c *ScrollConfig) { c.ScrollTop = top } }
func WithContainerHeight(h int) ScrollOption { return func(c *ScrollConfig) { c.ContainerHeight = h } }

// VirtualScrollManager computes which rows fall inside (or near) the
// viewport. Instead of notifying observers, every effective change bumps
// Version so owners can tell whether a recomputation is due.
type VirtualScrollManager struct {
	cfg     ScrollConfig
	version uint64
}

// NewVirtualScrollManager returns a manager starting at version 0.
func NewVirtualScrollManager(cfg ScrollConfig) *VirtualScrollManager {
	return &VirtualScrollManager{cfg: cfg}
}

// Config returns the current configuration.
func (v *VirtualScrollManager) Config() ScrollConfig { return v.cfg }

// Version increases by one on every UpdateConfig call that changed the
// configuration.
func (v *VirtualScrollManager) Version() uint64 { return v.version }

// UpdateConfig merges opts into the configuration and reports whether
// anything changed. It does no scheduling of its own; callers coalesce
// high-frequency scroll input before calling it.
func (v *VirtualScrollManager) UpdateConfig(opts ...ScrollOption) bool {
	next := v.cfg
	for _, opt := range opts {
		opt(&next)
	}
	if next == v.cfg {
		return false
	}
	v.cfg = next
	v.version++
	return true
}

// visibleRows resolves the configured viewport size in rows.
func (v *VirtualScrollManager) visibleRows() int {
	if v.cfg.VisibleRows > 0 {
		return v.cfg.VisibleRows
	}
	if v.cfg.RowHeight <= 0 || v.cfg.ContainerHeight <= 0 {
		return 0
	}
	return ceilDiv(v.cfg.ContainerHeight, v.cfg.RowHeight)
}

// BufferRows is the number of extra rows rendered on each side of the
// viewport: half the visible rows, rounded up.
func (v *VirtualScrollManager) BufferRows() int {
	return ceilDiv(v.visibleRows(), 2)
}

// GetVisibleRange returns the rows to render. Out-of-range scroll offsets
// clamp to [0, TotalRows] and never produce negative indices.
func (v *VirtualScrollManager) GetVisibleRange() VisibleRange {
	if v.cfg.RowHeight <= 0 || v.cfg.TotalRows <= 0 {
		return VisibleRange{}
	}
	visible := v.visibleRows()
	buffer := ceilDiv(visible, 2)
	startIndex := floorDiv(v.cfg.ScrollTop, v.cfg.RowHeight)

	start := max(0, startIndex-buffer)
	start = min(start, v.cfg.TotalRows)
	end := min(v.cfg.TotalRows, startIndex+visible+buffer)
	end = max(end, start)

	return VisibleRange{
		Start:   start,
		End:     end,
		OffsetY: start * v.cfg.RowHeight,
	}
}

// GetTotalHeight is the height of the full dataset, used to size the
// scroll area so scrollbar proportions stay right.
func (v *VirtualScrollManager) GetTotalHeight() int {
	return v.cfg.TotalRows * v.cfg.RowHeight
}

// MaxScrollTop is the largest ScrollTop that still fills the container.
func (v *VirtualScrollManager) MaxScrollTop() int {
	return max(0, v.GetTotalHeight()-v.cfg.ContainerHeight)
}

// ClampScrollTop limits top to [0, MaxScrollTop].
func (v *VirtualScrollManager) ClampScrollTop(top int) int {
	return min(max(0, top), v.MaxScrollTop())
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// floorDiv rounds toward negative infinity so negative scroll offsets map
// to negative row indices before clamping.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
