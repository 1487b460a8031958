package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"

	"sibyl/internal/logger"
	"sibyl/internal/market"
	symbolpkg "sibyl/internal/pkg/symbol"
)

const maxReconnectDelay = 30 * time.Second

// Subscribe streams kline events for the given pairs on one combined
// websocket. The loop reconnects with capped exponential backoff and never
// gives up until ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, symbols []string, interval string, opts market.SubscribeOptions) (<-chan market.CandleEvent, error) {
	symbolMap := make(map[string]string)
	mapping := make(map[string]string)
	for _, sym := range symbols {
		normalized := symbolpkg.Normalize(sym)
		if normalized == "" {
			continue
		}
		wire := symbolpkg.ToExchange(normalized)
		symbolMap[wire] = normalized
		mapping[wire] = interval
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("no valid symbols for subscription")
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 512
	}
	out := make(chan market.CandleEvent, buffer)
	subCtx, cancel := context.WithCancel(ctx)

	c.subMu.Lock()
	if c.candleCancel != nil {
		c.candleCancel()
	}
	c.candleCancel = cancel
	c.subMu.Unlock()

	go func() {
		defer close(out)
		c.runKlineLoop(subCtx, mapping, symbolMap, out, opts)
	}()
	return out, nil
}

func (c *Client) runKlineLoop(ctx context.Context, mapping, symbolMap map[string]string, out chan<- market.CandleEvent, opts market.SubscribeOptions) {
	delay := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		var errMu sync.Mutex
		var lastErr error
		handler := func(event *binance.WsKlineEvent) {
			ce, ok := convertKlineEvent(event)
			if !ok {
				return
			}
			if original, ok := symbolMap[ce.Symbol]; ok {
				ce.Symbol = original
			}
			select {
			case <-ctx.Done():
			case out <- ce:
			default:
				logger.Warnf("[binance] kline channel full, drop %s %s", ce.Symbol, ce.Interval)
			}
		}
		errHandler := func(err error) {
			if err == nil {
				return
			}
			errMu.Lock()
			lastErr = err
			errMu.Unlock()
		}
		doneC, stopC, err := binance.WsCombinedKlineServe(mapping, handler, errHandler)
		if err != nil {
			logger.Errorf("[binance] kline subscribe failed: %v", err)
			if opts.OnDisconnect != nil {
				opts.OnDisconnect(err)
			}
			if !sleepWithContext(ctx, delay) {
				return
			}
			delay = nextDelay(delay)
			continue
		}
		delay = time.Second
		if opts.OnConnect != nil {
			opts.OnConnect()
		}
		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			return
		case <-doneC:
		}
		close(stopC)
		errMu.Lock()
		errCopy := lastErr
		errMu.Unlock()
		logger.Warnf("[binance] kline stream disconnected: %v, reconnecting", errCopy)
		if opts.OnDisconnect != nil {
			opts.OnDisconnect(errCopy)
		}
		if !sleepWithContext(ctx, delay) {
			return
		}
		delay = nextDelay(delay)
	}
}

func convertKlineEvent(event *binance.WsKlineEvent) (market.CandleEvent, bool) {
	if event == nil {
		return market.CandleEvent{}, false
	}
	k := event.Kline
	return market.CandleEvent{
		Symbol:   strings.ToUpper(event.Symbol),
		Interval: k.Interval,
		Final:    k.IsFinal,
		Candle: market.Candle{
			OpenTime:  k.StartTime,
			CloseTime: k.EndTime,
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		},
	}, true
}

func nextDelay(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxReconnectDelay {
		return maxReconnectDelay
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
