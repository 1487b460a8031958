package market

import "context"

// CandleEvent carries one kline update. Final marks the candle as closed;
// strategy evaluation is driven exclusively by closed candles.
type CandleEvent struct {
	Symbol   string
	Interval string
	Final    bool
	Candle   Candle
}

type SubscribeOptions struct {
	Buffer       int
	OnConnect    func()
	OnDisconnect func(err error)
}

// Feed is the market-data boundary: history for warm-up, a stream for
// event-driven evaluation.
type Feed interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	Subscribe(ctx context.Context, symbols []string, interval string, opts SubscribeOptions) (<-chan CandleEvent, error)
}
