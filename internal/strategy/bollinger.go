package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"sibyl/internal/market"
)

// bollingerEngine is mean-reversion on band crossings: buy the tick price
// crosses below the lower band, sell the tick it crosses above the upper.
// Sitting outside a band without having just crossed it stays HOLD.
type bollingerEngine struct {
	period int
	numStd float64
}

func newBollinger(p Params) (Engine, error) {
	e := &bollingerEngine{
		period: p.Int("period", 20),
		numStd: p.Float("num_std", 2.0),
	}
	if e.period < 2 {
		return nil, fmt.Errorf("bollinger: period must be >= 2")
	}
	if e.numStd <= 0 {
		return nil, fmt.Errorf("bollinger: num_std must be positive")
	}
	return e, nil
}

func (e *bollingerEngine) Name() string { return "bollinger" }

func (e *bollingerEngine) Warmup() int { return e.period + 2 }

func (e *bollingerEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	closes := market.Closes(window)
	upper, _, lower := talib.BBands(closes, e.period, e.numStd, e.numStd, talib.SMA)

	pPrev, pLast, _ := lastTwo(closes)
	uPrev, uLast, okU := lastTwo(upper)
	lPrev, lLast, okL := lastTwo(lower)
	if !okU || !okL {
		return hold("bands unavailable")
	}
	switch {
	case pPrev >= lPrev && pLast < lLast:
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("price %.2f crossed below lower band %.2f", pLast, lLast)}
	case pPrev <= uPrev && pLast > uLast:
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("price %.2f crossed above upper band %.2f", pLast, uLast)}
	default:
		return hold("inside bands")
	}
}
