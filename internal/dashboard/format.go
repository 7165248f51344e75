package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockgrid/internal/grid"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatTurnover formats a money amount with T/B/M/K suffixes.
func FormatTurnover(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPrice formats a price with two decimals, or "-" for zero. NaN is
// blank.
func FormatPrice(p float64) string {
	if math.IsNaN(p) {
		return ""
	}
	if p == 0 {
		return "-"
	}
	return decimal.NewFromFloat(p).StringFixed(2)
}

// FormatChange formats a signed price move as "+X.XX" or "-X.XX".
func FormatChange(c float64) string {
	if math.IsNaN(c) {
		return ""
	}
	d := decimal.NewFromFloat(c).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	if d.IsZero() {
		return "0.00"
	}
	return d.StringFixed(2)
}

// FormatPercent formats a fractional change as "+X.XX%". Values of 100%
// or more drop the decimals to keep width compact.
func FormatPercent(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	pct := decimal.NewFromFloat(f).Shift(2)
	places := int32(2)
	if pct.Abs().GreaterThanOrEqual(decimal.NewFromInt(100)) {
		places = 0
	}
	s := pct.StringFixed(places) + "%"
	if pct.Round(places).IsPositive() {
		return "+" + s
	}
	if pct.Round(places).IsZero() {
		return decimal.Zero.StringFixed(places) + "%"
	}
	return s
}

// FormatNumber formats v with the given decimals; NaN is blank.
func FormatNumber(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// FormatCount formats a volume, using K/M suffixes for large values.
func FormatCount(n int64) string {
	switch {
	case n >= 100_000_000:
		return fmt.Sprintf("%.0fM", float64(n)/1e6)
	case n >= 100_000:
		return fmt.Sprintf("%.0fK", float64(n)/1e3)
	default:
		return FormatInt(n)
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case decimal.Decimal:
		return x.InexactFloat64(), true
	}
	return 0, false
}

func floatRenderer(format func(float64) string) grid.Renderer {
	return grid.RenderFunc(func(value any, _ grid.Record, _ int) string {
		f, ok := asFloat(value)
		if !ok {
			return ""
		}
		return format(f)
	})
}

// Cell renderers used by the column presets.
var (
	PriceRenderer    = floatRenderer(FormatPrice)
	ChangeRenderer   = floatRenderer(FormatChange)
	PercentRenderer  = floatRenderer(FormatPercent)
	TurnoverRenderer = floatRenderer(FormatTurnover)
	IndicatorRender  = floatRenderer(func(f float64) string { return FormatNumber(f, 2) })

	VolumeRenderer = grid.RenderFunc(func(value any, _ grid.Record, _ int) string {
		f, ok := asFloat(value)
		if !ok {
			return ""
		}
		return FormatCount(int64(f))
	})

	DateRenderer = grid.RenderFunc(func(value any, _ grid.Record, _ int) string {
		t, ok := value.(time.Time)
		if !ok || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	})

	PERenderer = floatRenderer(func(f float64) string {
		if math.IsNaN(f) || f <= 0 {
			return "-"
		}
		return FormatNumber(f, 1)
	})
)
