package strategy

import (
	"fmt"

	"sibyl/internal/market"
)

// rangeEngine only acts in lateral markets: when the trailing range is
// narrower than max_range_pct, it buys near the floor and sells near the
// ceiling of that range.
type rangeEngine struct {
	period        int
	buyThreshold  float64 // percent of the range above the low
	sellThreshold float64 // percent of the range below the high
	maxRangePct   float64
}

func newRangeTrading(p Params) (Engine, error) {
	e := &rangeEngine{
		period:        p.Int("period", 20),
		buyThreshold:  p.Float("buy_threshold", 10),
		sellThreshold: p.Float("sell_threshold", 10),
		maxRangePct:   p.Float("max_range_pct", 10),
	}
	if e.period < 1 {
		return nil, fmt.Errorf("range: period must be >= 1")
	}
	if e.buyThreshold < 0 || e.sellThreshold < 0 || e.maxRangePct < 0 {
		return nil, fmt.Errorf("range: thresholds must be >= 0")
	}
	return e, nil
}

func (e *rangeEngine) Name() string { return "range" }

func (e *rangeEngine) Warmup() int { return e.period }

func (e *rangeEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.period {
		return hold("insufficient history")
	}
	tail := window[len(window)-e.period:]
	low := tail[0].Low
	high := tail[0].High
	for _, c := range tail {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	price := tail[len(tail)-1].Close
	if low <= 0 {
		return hold("degenerate range")
	}
	rangeAbs := high - low
	rangePct := rangeAbs / low * 100
	if rangePct > e.maxRangePct {
		return hold(fmt.Sprintf("range %.2f%% too wide", rangePct))
	}
	buyLevel := low + e.buyThreshold/100*rangeAbs
	sellLevel := high - e.sellThreshold/100*rangeAbs
	// flat or overlapping bands satisfy both sides at once; that is not a
	// trade signal.
	if price <= buyLevel && price >= sellLevel {
		return hold("buy and sell levels overlap")
	}
	switch {
	case price <= buyLevel:
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("price %.2f at range floor (<= %.2f)", price, buyLevel)}
	case price >= sellLevel:
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("price %.2f at range ceiling (>= %.2f)", price, sellLevel)}
	default:
		return hold("mid-range")
	}
}
