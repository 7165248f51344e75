package dashboard

import "stockgrid/internal/grid"

func num(key, title string, width int, r grid.Renderer) grid.Column {
	return grid.Column{
		Key:       key,
		Title:     title,
		DataIndex: key,
		Width:     width,
		Align:     grid.AlignRight,
		Sortable:  true,
		Render:    r,
	}
}

func group(key, title string, children ...grid.Column) grid.Column {
	return grid.Column{Key: key, Title: title, Align: grid.AlignCenter, Draggable: true, Children: children}
}

// KLineColumns is the schema of the K-line table: date pinned left, volume
// pinned right, prices and a three-level indicator block in between.
func KLineColumns() []grid.Column {
	date := grid.Column{
		Key: "date", Title: "Date", DataIndex: "date", Width: 11,
		Fixed: grid.FixedLeft, Sortable: true, Render: DateRenderer,
	}
	volume := num("volume", "Volume", 9, VolumeRenderer)
	volume.Fixed = grid.FixedRight

	rsi := num("rsi14", "RSI14", 7, IndicatorRender)
	rsi.Draggable = true

	return []grid.Column{
		date,
		group("price", "Price",
			num("open", "Open", 9, PriceRenderer),
			num("high", "High", 9, PriceRenderer),
			num("low", "Low", 9, PriceRenderer),
			num("close", "Close", 9, PriceRenderer),
		),
		group("indicators", "Indicators",
			group("ma", "MA",
				num("ma5", "MA5", 9, IndicatorRender),
				num("ma10", "MA10", 9, IndicatorRender),
				num("ma20", "MA20", 9, IndicatorRender),
			),
			group("macd_group", "MACD",
				num("dif", "DIF", 8, IndicatorRender),
				num("dea", "DEA", 8, IndicatorRender),
				num("macd", "Hist", 8, IndicatorRender),
			),
			group("kdj", "KDJ",
				num("k", "K", 7, IndicatorRender),
				num("d", "D", 7, IndicatorRender),
				num("j", "J", 8, IndicatorRender),
			),
			group("boll", "BOLL",
				num("boll_upper", "Upper", 9, IndicatorRender),
				num("boll_mid", "Mid", 9, IndicatorRender),
				num("boll_lower", "Lower", 9, IndicatorRender),
			),
		),
		rsi,
		volume,
	}
}

// QuoteColumns is the schema of the stock list.
func QuoteColumns() []grid.Column {
	watched := grid.Column{
		Key: "watched", Title: "*", DataIndex: "watched", Width: 2,
		Fixed: grid.FixedLeft, Align: grid.AlignCenter, Sortable: true,
		Render: grid.RenderFunc(func(v any, _ grid.Record, _ int) string {
			if b, _ := v.(bool); b {
				return "*"
			}
			return ""
		}),
	}
	symbol := grid.Column{
		Key: "symbol", Title: "Symbol", DataIndex: "symbol", Width: 8,
		Fixed: grid.FixedLeft, Sortable: true,
	}
	name := grid.Column{
		Key: "name", Title: "Name", DataIndex: "name", Width: 18,
		Fixed: grid.FixedLeft, Sortable: true,
	}
	tier := grid.Column{
		Key: "tier", Title: "Tier", DataIndex: "tier", Width: 9,
		Comparator: TierComparator("tier"), Draggable: true,
	}
	sector := grid.Column{
		Key: "sector", Title: "Sector", DataIndex: "sector", Width: 12, Sortable: true,
	}
	mktCap := num("market_cap", "MktCap", 9, TurnoverRenderer)
	mktCap.Draggable = true
	pe := num("pe", "PE", 7, PERenderer)
	pe.Draggable = true

	return []grid.Column{
		watched,
		symbol,
		name,
		group("quote", "Quote",
			num("price", "Price", 9, PriceRenderer),
			num("change", "Change", 8, ChangeRenderer),
			num("change_pct", "Change%", 8, PercentRenderer),
		),
		group("activity", "Volume",
			num("volume", "Volume", 9, VolumeRenderer),
			num("turnover", "Turnover", 9, TurnoverRenderer),
		),
		tier,
		sector,
		mktCap,
		pe,
	}
}
