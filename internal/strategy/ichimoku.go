package strategy

import (
	"fmt"

	"sibyl/internal/market"
)

// ichimokuEngine scores four factors (tenkan/kijun cross, price vs cloud,
// cloud color, chikou vs displaced close) and goes directional when at
// least three agree. To stay pure it re-derives the previous candle's
// verdict from the same window and emits only on a change, instead of
// persisting the last emitted signal.
type ichimokuEngine struct {
	tenkanPeriod int
	kijunPeriod  int
	spanBPeriod  int
	displacement int
}

func newIchimoku(p Params) (Engine, error) {
	e := &ichimokuEngine{
		tenkanPeriod: p.Int("tenkan_period", 9),
		kijunPeriod:  p.Int("kijun_period", 26),
		spanBPeriod:  p.Int("senkou_span_b_period", 52),
		displacement: p.Int("displacement", 26),
	}
	if e.tenkanPeriod < 1 || e.kijunPeriod < 1 || e.spanBPeriod < 1 || e.displacement < 1 {
		return nil, fmt.Errorf("ichimoku: periods must be >= 1")
	}
	return e, nil
}

func (e *ichimokuEngine) Name() string { return "ichimoku" }

func (e *ichimokuEngine) Warmup() int { return e.spanBPeriod + e.displacement + 2 }

func (e *ichimokuEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	current := e.scoreAt(window)
	previous := e.scoreAt(window[:len(window)-1])
	if current != previous && current != SignalHold {
		return Evaluation{Signal: current, Reason: fmt.Sprintf("ichimoku turned %s", current)}
	}
	return hold(fmt.Sprintf("ichimoku steady (%s)", current))
}

// scoreAt derives the directional verdict for the final candle of candles.
func (e *ichimokuEngine) scoreAt(candles []market.Candle) Signal {
	last := len(candles) - 1
	if last < e.spanBPeriod+e.displacement {
		return SignalHold
	}
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	closes := market.Closes(candles)

	tenkan := midline(highs, lows, e.tenkanPeriod)
	kijun := midline(highs, lows, e.kijunPeriod)
	spanBBase := midline(highs, lows, e.spanBPeriod)

	// Cloud values at the last candle come from displacement candles back.
	src := last - e.displacement
	if src < 1 || src >= len(tenkan) {
		return SignalHold
	}
	spanA := (tenkan[src] + kijun[src]) / 2
	spanB := spanBBase[src]

	price := closes[last]
	topCloud, botCloud := spanA, spanB
	if spanB > spanA {
		topCloud, botCloud = spanB, spanA
	}

	bullishCross := tenkan[last-1] < kijun[last-1] && tenkan[last] > kijun[last]
	bearishCross := tenkan[last-1] > kijun[last-1] && tenkan[last] < kijun[last]

	bullish, bearish := 0, 0
	if bullishCross {
		bullish++
	}
	if bearishCross {
		bearish++
	}
	if price > topCloud {
		bullish++
	} else if price < botCloud {
		bearish++
	}
	if spanA > spanB {
		bullish++
	} else if spanA < spanB {
		bearish++
	}
	// Chikou: today's close against the close displacement candles ago.
	if price > closes[last-e.displacement] {
		bullish++
	} else if price < closes[last-e.displacement] {
		bearish++
	}

	switch {
	case bullish >= 3 && bearish < 3:
		return SignalBuy
	case bearish >= 3 && bullish < 3:
		return SignalSell
	default:
		return SignalHold
	}
}

// midline is (rolling max high + rolling min low)/2; zero before warm-up.
func midline(highs, lows []float64, period int) []float64 {
	maxes := rollingMax(highs, period)
	mins := rollingMin(lows, period)
	out := make([]float64, len(highs))
	for i := range out {
		if i+1 < period {
			continue
		}
		out[i] = (maxes[i] + mins[i]) / 2
	}
	return out
}
