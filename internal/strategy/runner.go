package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
	"sibyl/internal/logger"
	"sibyl/internal/market"
	"sibyl/internal/scheduler"
)

const (
	candleBuffer   = 16
	signalTimeout  = 30 * time.Second
	warmupTimeout  = 20 * time.Second
	livenessFactor = 3
)

// runner supervises one strategy instance on one pair. A single goroutine
// owns the candle window, evaluation and order routing, which makes stop
// semantics simple: once the loop observes stop and exits, no further order
// can originate from this instance. stop() blocks until then.
type runner struct {
	pair      string
	engine    *guardedEngine
	mgr       *Manager
	sizePct   decimal.Decimal
	startedAt time.Time

	events chan market.Candle
	stopCh chan struct{}
	done   chan struct{}

	stopOnce sync.Once

	mu         sync.Mutex
	lastCandle time.Time
	lastSignal Signal
}

// guardedEngine serializes Evaluate calls. Evaluation is pure, the guard
// only protects against an engine being shared by accident.
type guardedEngine struct {
	mu sync.Mutex
	Engine
}

func (g *guardedEngine) Evaluate(window []market.Candle) Evaluation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Engine.Evaluate(window)
}

func newRunner(pair string, engine Engine, sizePct decimal.Decimal, mgr *Manager) *runner {
	return &runner{
		pair:       pair,
		engine:     &guardedEngine{Engine: engine},
		mgr:        mgr,
		sizePct:    sizePct,
		startedAt:  time.Now(),
		events:     make(chan market.Candle, candleBuffer),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		lastSignal: SignalHold,
	}
}

func (r *runner) start() {
	go r.loop()
}

// stop requests a cooperative stop and waits for the loop to drain. An
// in-flight evaluation finishes and routes its order before this returns.
func (r *runner) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.done
}

func (r *runner) deliver(c market.Candle) {
	select {
	case r.events <- c:
	case <-r.stopCh:
	default:
		// Runner is behind; drop the oldest pending candle and retry once.
		// Evaluation over the latest window subsumes skipped candles.
		select {
		case <-r.events:
		default:
		}
		select {
		case r.events <- c:
		default:
		}
	}
}

func (r *runner) loop() {
	defer close(r.done)

	window := r.warmup()
	liveness := time.NewTicker(livenessFactor * scheduler.IntervalDuration(r.mgr.interval))
	defer liveness.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case candle := <-r.events:
			window = r.append(window, candle)
			r.evaluate(window)
		case <-liveness.C:
			r.mu.Lock()
			last := r.lastCandle
			r.mu.Unlock()
			if last.IsZero() || time.Since(last) > livenessFactor*scheduler.IntervalDuration(r.mgr.interval) {
				logger.Warnf("策略 %s@%s 长时间未收到新 K 线", r.engine.Name(), r.pair)
			}
		}
	}
}

// warmup seeds the window from REST history so the first closed candle can
// already evaluate. Failure is not fatal: the window fills from the stream.
func (r *runner) warmup() []market.Candle {
	if r.mgr.feed == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()
	history, err := r.mgr.feed.FetchHistory(ctx, r.pair, r.mgr.interval, r.mgr.historyLimit)
	if err != nil {
		logger.Warnf("策略 %s@%s 预热历史获取失败: %v", r.engine.Name(), r.pair, err)
		return nil
	}
	logger.Infof("策略 %s@%s 已预热 %d 根 K 线", r.engine.Name(), r.pair, len(history))
	return history
}

func (r *runner) append(window []market.Candle, c market.Candle) []market.Candle {
	// Re-delivered or out-of-order candles are dropped; evaluation over the
	// same window would be a no-op anyway, this just keeps the window clean.
	if n := len(window); n > 0 && c.OpenTime <= window[n-1].OpenTime {
		return window
	}
	window = append(window, c)
	if limit := r.mgr.historyLimit; limit > 0 && len(window) > limit {
		window = window[len(window)-limit:]
	}
	r.mu.Lock()
	r.lastCandle = time.Now()
	r.mu.Unlock()
	return window
}

func (r *runner) evaluate(window []market.Candle) {
	eval := r.engine.Evaluate(window)
	r.mu.Lock()
	r.lastSignal = eval.Signal
	r.mu.Unlock()
	if eval.Signal == SignalHold {
		logger.Debugf("策略 %s@%s HOLD: %s", r.engine.Name(), r.pair, eval.Reason)
		return
	}

	side := decision.SideBuy
	if eval.Signal == SignalSell {
		side = decision.SideSell
	}
	ctx, cancel := context.WithTimeout(context.Background(), signalTimeout)
	defer cancel()
	// size_pct resolves against the balance fetched at emission time, not at
	// activation; zero falls back to the configured default size.
	orderID, err := r.mgr.router.ExecuteSignal(ctx, r.pair, side, r.sizePct, r.engine.Name())
	if err != nil {
		// Transient failures just wait for the next candle; the engine is
		// stateless so nothing needs rewinding.
		logger.Errorf("策略 %s@%s 信号下单失败: %v", r.engine.Name(), r.pair, err)
		r.mgr.alert(fmt.Sprintf("⚠️ %s@%s %s 信号执行失败: %v", r.engine.Name(), r.pair, eval.Signal, err))
		return
	}
	logger.Infof("策略 %s@%s 信号 %s 已执行 (order=%s): %s", r.engine.Name(), r.pair, eval.Signal, orderID, eval.Reason)
	r.mgr.alert(fmt.Sprintf("📈 %s@%s %s: %s (order %s)", r.engine.Name(), r.pair, eval.Signal, eval.Reason, orderID))
}

func (r *runner) status(pair string) InstanceStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return InstanceStatus{
		Pair:       pair,
		Strategy:   r.engine.Name(),
		StartedAt:  r.startedAt,
		LastCandle: r.lastCandle,
		LastSignal: string(r.lastSignal),
	}
}
