package strategy

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"sibyl/internal/market"
)

// stochasticEngine trades %K/%D crossings in the exhaustion zones: a
// bullish cross counts only with both lines under the oversold level, a
// bearish cross only with both over the overbought level.
type stochasticEngine struct {
	kPeriod    int
	dPeriod    int
	overbought float64
	oversold   float64
}

func newStochastic(p Params) (Engine, error) {
	e := &stochasticEngine{
		kPeriod:    p.Int("k_period", 14),
		dPeriod:    p.Int("d_period", 3),
		overbought: p.Float("overbought", 80),
		oversold:   p.Float("oversold", 20),
	}
	if e.kPeriod < 1 || e.dPeriod < 1 {
		return nil, fmt.Errorf("stochastic: periods must be >= 1")
	}
	if e.oversold >= e.overbought {
		return nil, fmt.Errorf("stochastic: oversold must be below overbought")
	}
	return e, nil
}

func (e *stochasticEngine) Name() string { return "stochastic" }

func (e *stochasticEngine) Warmup() int { return e.kPeriod + e.dPeriod + 2 }

func (e *stochasticEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	kSeries, dSeries := talib.StochF(
		market.Highs(window), market.Lows(window), market.Closes(window),
		e.kPeriod, e.dPeriod, talib.SMA,
	)
	kPrev, kLast, okK := lastTwo(kSeries)
	dPrev, dLast, okD := lastTwo(dSeries)
	if !okK || !okD {
		return hold("stochastic unavailable")
	}
	switch {
	case crossOver(kPrev, kLast, dPrev, dLast) && kLast < e.oversold && dLast < e.oversold:
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("%%K %.2f crossed above %%D %.2f in oversold zone", kLast, dLast)}
	case crossOver(dPrev, dLast, kPrev, kLast) && kLast > e.overbought && dLast > e.overbought:
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("%%K %.2f crossed below %%D %.2f in overbought zone", kLast, dLast)}
	default:
		return hold(fmt.Sprintf("%%K %.2f %%D %.2f", kLast, dLast))
	}
}
