package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sibyl/internal/logger"
	"sibyl/internal/pkg/circuit"
)

// Gateway is the exchange boundary the executor talks to.
type Gateway interface {
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
	Price(ctx context.Context, pair string) (decimal.Decimal, error)
	Filters(ctx context.Context, pair string) (SymbolFilters, error)
	PlaceMarketOrder(ctx context.Context, order *Order) (string, error)
}

// RetryPolicy bounds the transient-failure retry loop.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Dispatcher wraps a Gateway with the submission discipline: a per-pair
// mutex so concurrent strategy signals for the same pair serialize, bounded
// backoff on transient failures, and a breaker that trips permanently on
// fatal exchange errors.
type Dispatcher struct {
	gw      Gateway
	policy  RetryPolicy
	breaker *circuit.Breaker
	dryRun  bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDispatcher(gw Gateway, policy RetryPolicy, breaker *circuit.Breaker, dryRun bool) *Dispatcher {
	return &Dispatcher{
		gw:      gw,
		policy:  policy,
		breaker: breaker,
		dryRun:  dryRun,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (d *Dispatcher) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	balances, err := d.gw.Balances(ctx)
	if err != nil {
		return nil, classifyExchangeError(err)
	}
	return balances, nil
}

func (d *Dispatcher) Price(ctx context.Context, pair string) (decimal.Decimal, error) {
	price, err := d.gw.Price(ctx, pair)
	if err != nil {
		return decimal.Zero, classifyExchangeError(err)
	}
	return price, nil
}

func (d *Dispatcher) Filters(ctx context.Context, pair string) (SymbolFilters, error) {
	filters, err := d.gw.Filters(ctx, pair)
	if err != nil {
		return SymbolFilters{}, classifyExchangeError(err)
	}
	return filters, nil
}

// Submit places one market order. Transient errors retry with capped
// exponential backoff; a fatal error trips the breaker so every later
// submission short-circuits with ErrTradingHalted until an operator resets.
func (d *Dispatcher) Submit(ctx context.Context, order *Order) (string, error) {
	if !d.breaker.Allow() {
		return "", ErrTradingHalted
	}
	lock := d.pairLock(order.Symbol)
	lock.Lock()
	defer lock.Unlock()

	if d.dryRun {
		id := "dry-" + uuid.NewString()
		logger.Infof("[dry-run] %s %s %s @ %s (origin=%s) -> %s",
			order.Side, order.Size, order.Symbol, order.Price, order.Origin, id)
		d.breaker.RecordSuccess()
		return id, nil
	}

	var lastErr error
	for attempt := 0; attempt <= d.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", errors.Join(ErrExchangeTransient, ctx.Err())
			case <-time.After(d.policy.delay(attempt - 1)):
			}
		}
		orderID, err := d.gw.PlaceMarketOrder(ctx, order)
		if err == nil {
			d.breaker.RecordSuccess()
			return orderID, nil
		}
		lastErr = classifyExchangeError(err)
		if errors.Is(lastErr, ErrExchangeFatal) {
			logger.Errorf("下单失败（致命）: %s %s %s: %v", order.Side, order.Size, order.Symbol, err)
			d.breaker.Trip()
			return "", lastErr
		}
		logger.Warnf("下单失败（可重试 %d/%d）: %s %s: %v",
			attempt+1, d.policy.MaxRetries+1, order.Side, order.Symbol, err)
	}
	d.breaker.RecordFailure()
	return "", lastErr
}

// Breaker exposes the order breaker for status reporting and operator reset.
func (d *Dispatcher) Breaker() *circuit.Breaker { return d.breaker }

func (d *Dispatcher) pairLock(pair string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[pair]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[pair] = lock
	}
	return lock
}
