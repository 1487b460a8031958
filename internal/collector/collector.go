package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"sibyl/internal/market"
)

// PriceSource supplies a live reference price; the dispatcher implements it.
type PriceSource interface {
	Price(ctx context.Context, pair string) (decimal.Decimal, error)
}

// Collector assembles the market snapshot document fed to the decision
// model: current price, closed-candle history and a standard indicator set.
type Collector struct {
	feed   market.Feed
	prices PriceSource
}

func New(feed market.Feed, prices PriceSource) *Collector {
	return &Collector{feed: feed, prices: prices}
}

// Snapshot builds the document for one pair. The JSON layout is the
// collector contract the prompt and the snapshot parser agree on.
func (c *Collector) Snapshot(ctx context.Context, pair, interval string, limit int) (*market.Snapshot, error) {
	candles, err := c.feed.FetchHistory(ctx, pair, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("collector: fetch history failed: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("collector: no candles for %s", pair)
	}

	currentPrice := candles[len(candles)-1].Close
	if c.prices != nil {
		if live, err := c.prices.Price(ctx, pair); err == nil && live.IsPositive() {
			currentPrice, _ = live.Float64()
		}
	}

	indicators := computeIndicators(candles)

	rows := make([]map[string]any, 0, len(candles))
	for _, candle := range candles {
		rows = append(rows, map[string]any{
			"date":              time.UnixMilli(candle.OpenTime).UTC().Format("2006-01-02 15:04"),
			"opening_price_usd": candle.Open,
			"high_usd":          candle.High,
			"low_usd":           candle.Low,
			"closing_price_usd": candle.Close,
			"volume_btc":        candle.Volume,
		})
	}
	doc := map[string]any{
		"symbol": pair,
		"real_time_data": map[string]any{
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
			"current_price_usd": currentPrice,
		},
		"historical_data": map[string]any{
			"interval":          interval,
			"historical_prices": rows,
		},
		"indicators": indicators,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return &market.Snapshot{
		Symbol:       pair,
		Timestamp:    time.Now().UTC(),
		CurrentPrice: currentPrice,
		Candles:      candles,
		Indicators:   indicators,
		RawJSON:      string(raw),
	}, nil
}

// computeIndicators derives the standard set the prompt references. Series
// shorter than an indicator's warm-up simply omit that entry.
func computeIndicators(candles []market.Candle) map[string]float64 {
	out := make(map[string]float64)
	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)

	put := func(key string, series []float64, warmup int) {
		if len(series) == 0 || len(closes) < warmup {
			return
		}
		out[key] = series[len(series)-1]
	}

	put("rsi_14", talib.Rsi(closes, 14), 16)
	put("sma_10", talib.Sma(closes, 10), 10)
	put("sma_50", talib.Sma(closes, 50), 50)
	put("ema_12", talib.Ema(closes, 12), 12)
	put("ema_26", talib.Ema(closes, 26), 26)
	put("atr_14", talib.Atr(highs, lows, closes, 14), 16)

	if len(closes) >= 35 {
		macdLine, signalLine, hist := talib.Macd(closes, 12, 26, 9)
		put("macd.line", macdLine, 35)
		put("macd.signal", signalLine, 35)
		put("macd.histogram", hist, 35)
	}
	if len(closes) >= 20 {
		upper, middle, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
		put("bollinger.upper", upper, 20)
		put("bollinger.middle", middle, 20)
		put("bollinger.lower", lower, 20)
	}
	if len(closes) >= 20 {
		kSeries, dSeries := talib.StochF(highs, lows, closes, 14, 3, talib.SMA)
		put("stochastic.k", kSeries, 20)
		put("stochastic.d", dSeries, 20)
	}
	return out
}
