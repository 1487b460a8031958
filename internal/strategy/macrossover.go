package strategy

import (
	"fmt"

	"sibyl/internal/market"
)

// maCrossoverEngine: golden cross buys, death cross sells.
type maCrossoverEngine struct {
	shortPeriod int
	longPeriod  int
}

func newMACrossover(p Params) (Engine, error) {
	e := &maCrossoverEngine{
		shortPeriod: p.Int("short_period", 10),
		longPeriod:  p.Int("long_period", 50),
	}
	if e.shortPeriod < 1 || e.longPeriod < 2 {
		return nil, fmt.Errorf("ma_crossover: invalid periods")
	}
	if e.shortPeriod >= e.longPeriod {
		return nil, fmt.Errorf("ma_crossover: short_period must be below long_period")
	}
	return e, nil
}

func (e *maCrossoverEngine) Name() string { return "ma_crossover" }

func (e *maCrossoverEngine) Warmup() int { return e.longPeriod + 2 }

func (e *maCrossoverEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	closes := market.Closes(window)
	short := sma(closes, e.shortPeriod)
	long := sma(closes, e.longPeriod)
	sPrev, sLast, okS := lastTwo(short)
	lPrev, lLast, okL := lastTwo(long)
	if !okS || !okL {
		return hold("sma unavailable")
	}
	switch {
	case crossOver(sPrev, sLast, lPrev, lLast):
		return Evaluation{Signal: SignalBuy, Reason: fmt.Sprintf("golden cross SMA%d over SMA%d", e.shortPeriod, e.longPeriod)}
	case crossOver(lPrev, lLast, sPrev, sLast):
		return Evaluation{Signal: SignalSell, Reason: fmt.Sprintf("death cross SMA%d under SMA%d", e.shortPeriod, e.longPeriod)}
	default:
		return hold("no crossover")
	}
}
