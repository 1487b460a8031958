package strategy

import (
	"fmt"

	"sibyl/internal/market"
)

// atrStopEngine is a supertrend-style trailing stop. The trend state is
// re-derived by walking the whole window every evaluation instead of being
// persisted, so identical windows always produce identical verdicts.
//
// A downtrend flip needs the close beyond the band for consecutive_candles
// in a row; after any flip the next lock_candles candles are ignored to
// avoid whipsaw re-flips. A signal emits only when the flip lands on the
// window's final candle.
type atrStopEngine struct {
	period          int
	multiplier      float64
	consecutive     int
	atrMinThreshold float64
	lockCandles     int
}

func newATRStop(p Params) (Engine, error) {
	e := &atrStopEngine{
		period:          p.Int("period", 14),
		multiplier:      p.Float("multiplier", 2.0),
		consecutive:     p.Int("consecutive_candles", 2),
		atrMinThreshold: p.Float("atr_min_threshold", 0),
		lockCandles:     p.Int("lock_candles", 2),
	}
	if e.period < 1 {
		return nil, fmt.Errorf("atr_stop: period must be >= 1")
	}
	if e.multiplier < 0 || e.atrMinThreshold < 0 {
		return nil, fmt.Errorf("atr_stop: multiplier and atr_min_threshold must be >= 0")
	}
	if e.consecutive < 1 || e.lockCandles < 0 {
		return nil, fmt.Errorf("atr_stop: invalid candle counts")
	}
	return e, nil
}

func (e *atrStopEngine) Name() string { return "atr_stop" }

func (e *atrStopEngine) Warmup() int { return e.period + e.consecutive + e.lockCandles + 2 }

func (e *atrStopEngine) Evaluate(window []market.Candle) Evaluation {
	if len(window) < e.Warmup() {
		return hold("insufficient history")
	}
	highs := market.Highs(window)
	lows := market.Lows(window)
	closes := market.Closes(window)

	atr := emaSeries(trueRange(highs, lows, closes), e.period)
	if atr[len(atr)-1] < e.atrMinThreshold {
		return hold("atr below threshold")
	}

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		mid := (highs[i] + lows[i]) / 2
		upper[i] = mid + e.multiplier*atr[i]
		lower[i] = mid - e.multiplier*atr[i]
	}

	uptrend := true
	below, above, lock := 0, 0, 0
	flipAt := -1
	flipTo := true
	for i := e.period; i < len(closes); i++ {
		if lock > 0 {
			lock--
			continue
		}
		price := closes[i]
		if uptrend {
			if price < lower[i] {
				below++
				if below >= e.consecutive {
					uptrend = false
					below, above = 0, 0
					lock = e.lockCandles
					flipAt, flipTo = i, false
				}
			} else {
				below = 0
			}
		} else {
			if price > upper[i] {
				above++
				if above >= e.consecutive {
					uptrend = true
					below, above = 0, 0
					lock = e.lockCandles
					flipAt, flipTo = i, true
				}
			} else {
				above = 0
			}
		}
	}

	if flipAt != len(closes)-1 {
		return hold("trend unchanged")
	}
	if flipTo {
		return Evaluation{Signal: SignalBuy, Reason: "trend flipped up through ATR band"}
	}
	return Evaluation{Signal: SignalSell, Reason: "trend flipped down through ATR band"}
}
