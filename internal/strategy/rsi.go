package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"sibyl/internal/market"
)

// rsiEngine buys the downward crossing of the oversold level and sells the
// upward crossing of the overbought level. Level itself is not enough; only
// the tick that crosses emits.
type rsiEngine struct {
	period     int
	overbought float64
	oversold   float64
}

func newRSI(p Params) (Engine, error) {
	e := &rsiEngine{
		period:     p.Int("period", 14),
		overbought: p.Float("overbought", 70),
		oversold:   p.Float("oversold", 30),
	}
	if e.period < 2 {
		return nil, fmt.Errorf("rsi: period must be >= 2")
	}
	if e.oversold >= e.overbought {
		return nil, fmt.Errorf("rsi: oversold must be below overbought")
	}
	return e, nil
}

func (e *rsiEngine) Name() string { return "rsi" }

func (e *rsiEngine) Warmup() int { return e.period + 2 }

func (e *rsiEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	series := talib.Rsi(market.Closes(window), e.period)
	prev, last, ok := lastTwo(series)
	if !ok {
		return hold("rsi unavailable")
	}
	switch {
	case crossBelow(prev, last, e.oversold):
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("RSI %.2f crossed below %.2f", last, e.oversold)}
	case crossAbove(prev, last, e.overbought):
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("RSI %.2f crossed above %.2f", last, e.overbought)}
	default:
		return hold(fmt.Sprintf("RSI %.2f", last))
	}
}
