package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sibyl/internal/market"
)

func TestMACDBuysOnSignalCross(t *testing.T) {
	engine, err := New("macd", nil)
	require.NoError(t, err)

	// flat series keeps MACD glued to the signal line; the jump on the final
	// close separates them in a single tick.
	closes := make([]float64, 41)
	for i := range closes {
		closes[i] = 10
	}
	closes[40] = 20
	eval := engine.Evaluate(candlesFromCloses(closes))
	assert.Equal(t, SignalBuy, eval.Signal)
}

func TestMACDSellsOnSignalCross(t *testing.T) {
	engine, err := New("macd", nil)
	require.NoError(t, err)

	closes := make([]float64, 41)
	for i := range closes {
		closes[i] = 10
	}
	closes[40] = 1
	eval := engine.Evaluate(candlesFromCloses(closes))
	assert.Equal(t, SignalSell, eval.Signal)
}

func TestMACDFlatSeriesHolds(t *testing.T) {
	engine, err := New("macd", nil)
	require.NoError(t, err)

	closes := make([]float64, 41)
	for i := range closes {
		closes[i] = 10
	}
	eval := engine.Evaluate(candlesFromCloses(closes))
	assert.Equal(t, SignalHold, eval.Signal)
}

func TestATRStopSellsOnDownFlip(t *testing.T) {
	engine, err := New("atr_stop", Params{
		"period": 1, "multiplier": 0, "consecutive_candles": 1, "lock_candles": 0,
	})
	require.NoError(t, err)

	// multiplier 0 collapses the bands onto the candle midpoint; the final
	// close drops through it and flips the trend down.
	window := []market.Candle{
		candle(0, 10, 10, 10, 10),
		candle(1, 10, 10, 10, 10),
		candle(2, 10, 10, 10, 10),
		candle(3, 10, 10, 10, 5),
	}
	eval := engine.Evaluate(window)
	assert.Equal(t, SignalSell, eval.Signal)
}

func TestATRStopBuysOnUpFlip(t *testing.T) {
	engine, err := New("atr_stop", Params{
		"period": 1, "multiplier": 0, "consecutive_candles": 1, "lock_candles": 0,
	})
	require.NoError(t, err)

	// down-flip mid-window, then the final close punches back above the band.
	window := []market.Candle{
		candle(0, 10, 10, 10, 10),
		candle(1, 10, 10, 10, 10),
		candle(2, 10, 10, 10, 5),
		candle(3, 10, 10, 10, 10),
		candle(4, 10, 10, 10, 20),
	}
	eval := engine.Evaluate(window)
	assert.Equal(t, SignalBuy, eval.Signal)
}

func TestATRStopHoldsWhenFlipIsStale(t *testing.T) {
	engine, err := New("atr_stop", Params{
		"period": 1, "multiplier": 0, "consecutive_candles": 1, "lock_candles": 0,
	})
	require.NoError(t, err)

	// the down-flip happened two candles ago; re-evaluating the window must
	// not re-emit it.
	window := []market.Candle{
		candle(0, 10, 10, 10, 10),
		candle(1, 10, 10, 10, 10),
		candle(2, 10, 10, 10, 5),
		candle(3, 10, 10, 10, 5),
	}
	eval := engine.Evaluate(window)
	assert.Equal(t, SignalHold, eval.Signal)
}

func TestIchimokuSteadyTrendHolds(t *testing.T) {
	engine, err := New("ichimoku", nil)
	require.NoError(t, err)

	// A long monotonic rise scores bullish on both the final and the prior
	// candle; without a verdict change nothing emits.
	closes := make([]float64, 0, 85)
	for i := 0; i < 85; i++ {
		closes = append(closes, 100+float64(i))
	}
	eval := engine.Evaluate(candlesFromCloses(closes))
	assert.Equal(t, SignalHold, eval.Signal)
}

func TestEngineConstructorValidation(t *testing.T) {
	cases := []struct {
		name   string
		params Params
	}{
		{"stochastic", Params{"oversold": 90, "overbought": 10}},
		{"stochastic", Params{"k_period": 0}},
		{"macd", Params{"fast_period": 30, "slow_period": 26}},
		{"bollinger", Params{"period": 1}},
		{"bollinger", Params{"num_std": -1}},
		{"ichimoku", Params{"displacement": 0}},
		{"range", Params{"buy_threshold": -5}},
		{"atr_stop", Params{"consecutive_candles": 0}},
		{"ma_crossover", Params{"short_period": 50, "long_period": 10}},
	}
	for _, tc := range cases {
		_, err := New(tc.name, tc.params)
		assert.Error(t, err, "%s %v", tc.name, tc.params)
	}
}

func TestEnginesHoldOnShortWindow(t *testing.T) {
	window := candlesFromCloses([]float64{1, 2, 3, 4, 5})
	for _, name := range Known() {
		engine, err := New(name, nil)
		require.NoError(t, err, name)
		eval := engine.Evaluate(window)
		assert.Equal(t, SignalHold, eval.Signal, name)
	}
}
