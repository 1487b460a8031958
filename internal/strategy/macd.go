package strategy

import (
	"fmt"

	"sibyl/internal/market"
)

// macdEngine trades MACD/signal-line crossings. The EMAs are seeded from
// the first sample and smoothed recursively, so the line converges the same
// way regardless of where the window starts.
type macdEngine struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

func newMACD(p Params) (Engine, error) {
	e := &macdEngine{
		fastPeriod:   p.Int("fast_period", 12),
		slowPeriod:   p.Int("slow_period", 26),
		signalPeriod: p.Int("signal_period", 9),
	}
	if e.fastPeriod < 1 || e.slowPeriod < 2 || e.signalPeriod < 1 {
		return nil, fmt.Errorf("macd: invalid periods")
	}
	if e.fastPeriod >= e.slowPeriod {
		return nil, fmt.Errorf("macd: fast_period must be below slow_period")
	}
	return e, nil
}

func (e *macdEngine) Name() string { return "macd" }

func (e *macdEngine) Warmup() int { return e.slowPeriod + e.signalPeriod + 2 }

func (e *macdEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	closes := market.Closes(window)
	fast := emaSeries(closes, e.fastPeriod)
	slow := emaSeries(closes, e.slowPeriod)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fast[i] - slow[i]
	}
	signalLine := emaSeries(macdLine, e.signalPeriod)

	mPrev, mLast, okM := lastTwo(macdLine)
	sPrev, sLast, okS := lastTwo(signalLine)
	if !okM || !okS {
		return hold("macd unavailable")
	}
	switch {
	case crossOver(mPrev, mLast, sPrev, sLast):
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("MACD %.4f crossed above signal %.4f", mLast, sLast)}
	case crossOver(sPrev, sLast, mPrev, mLast):
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("MACD %.4f crossed below signal %.4f", mLast, sLast)}
	default:
		return hold("no macd cross")
	}
}
