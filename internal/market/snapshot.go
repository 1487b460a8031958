package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Snapshot is the market document produced by the collector and consumed by
// the decision prompt and by strategy construction. Candles are ordered
// oldest to newest and contain only closed intervals.
type Snapshot struct {
	Symbol       string
	Timestamp    time.Time
	CurrentPrice float64
	Candles      []Candle
	Indicators   map[string]float64
	RawJSON      string
}

// ParseSnapshot decodes a collector document. The shape follows the
// data-collector contract: real_time_data.current_price_usd plus
// historical_data.historical_prices with *_usd columns.
func ParseSnapshot(raw string) (*Snapshot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("snapshot: empty document")
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("snapshot: invalid json")
	}
	doc := gjson.Parse(raw)

	snap := &Snapshot{
		Symbol:     strings.TrimSpace(doc.Get("symbol").String()),
		Indicators: make(map[string]float64),
		RawJSON:    raw,
	}
	if ts := doc.Get("real_time_data.timestamp").String(); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			snap.Timestamp = parsed
		}
	}
	snap.CurrentPrice = doc.Get("real_time_data.current_price_usd").Float()

	prices := doc.Get("historical_data.historical_prices")
	if !prices.Exists() || !prices.IsArray() {
		return nil, fmt.Errorf("snapshot: historical_data.historical_prices missing")
	}
	prices.ForEach(func(_, row gjson.Result) bool {
		c := Candle{
			Open:   row.Get("opening_price_usd").Float(),
			High:   row.Get("high_usd").Float(),
			Low:    row.Get("low_usd").Float(),
			Close:  row.Get("closing_price_usd").Float(),
			Volume: row.Get("volume_btc").Float(),
		}
		if date := row.Get("date").String(); date != "" {
			// the collector writes minute precision; older documents carry
			// date-only rows.
			for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
				if parsed, err := time.Parse(layout, date); err == nil {
					c.OpenTime = parsed.UnixMilli()
					break
				}
			}
		}
		snap.Candles = append(snap.Candles, c)
		return true
	})
	if len(snap.Candles) == 0 {
		return nil, fmt.Errorf("snapshot: no historical candles")
	}

	if ind := doc.Get("indicators"); ind.Exists() && ind.IsObject() {
		flattenIndicators("", ind, snap.Indicators)
	}
	return snap, nil
}

func flattenIndicators(prefix string, node gjson.Result, dest map[string]float64) {
	node.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case value.IsObject():
			flattenIndicators(name, value, dest)
		case value.Type == gjson.Number:
			dest[name] = value.Float()
		}
		return true
	})
}
