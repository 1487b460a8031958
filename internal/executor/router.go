package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
	"sibyl/internal/logger"
	"sibyl/internal/pkg/symbol"
)

// StrategyController is the strategy-lifecycle side of routing. Activation
// replaces whatever strategy currently runs for the pair.
type StrategyController interface {
	Activate(ctx context.Context, pair, name string, params map[string]any) error
}

// ExecutionRecorder persists one executed (or rejected) entry.
type ExecutionRecorder interface {
	RecordExecution(ctx context.Context, batchID string, entry decision.Entry, result decision.ExecutionResult)
}

// Notifier pushes operator-facing alerts.
type Notifier interface {
	SendText(text string) error
}

// Router walks a decision batch and dispatches each entry: direct orders go
// through normalize-then-submit, strategy entries swap the pair's engine.
// One failed entry never aborts the batch.
type Router struct {
	dispatcher *Dispatcher
	normalizer *Normalizer
	strategies StrategyController
	recorder   ExecutionRecorder
	notifier   Notifier
}

func NewRouter(dispatcher *Dispatcher, normalizer *Normalizer, strategies StrategyController, recorder ExecutionRecorder, notifier Notifier) *Router {
	return &Router{
		dispatcher: dispatcher,
		normalizer: normalizer,
		strategies: strategies,
		recorder:   recorder,
		notifier:   notifier,
	}
}

// Execute runs a whole batch against a single balance snapshot. Accepted
// orders are projected onto the snapshot so later entries cannot double-spend
// funds already committed earlier in the same batch.
func (r *Router) Execute(ctx context.Context, batchID string, entries []decision.Entry) []decision.ExecutionResult {
	results := make([]decision.ExecutionResult, 0, len(entries))
	if len(entries) == 0 {
		return results
	}

	balances, err := r.dispatcher.Balances(ctx)
	if err != nil {
		logger.Errorf("读取账户余额失败: %v", err)
		for _, entry := range entries {
			results = append(results, r.finish(ctx, batchID, entry, reject(entry, err)))
		}
		return results
	}
	wallet := NewWallet(balances)

	for _, entry := range entries {
		results = append(results, r.finish(ctx, batchID, entry, r.executeEntry(ctx, entry, wallet)))
	}
	return results
}

func (r *Router) executeEntry(ctx context.Context, entry decision.Entry, wallet *Wallet) decision.ExecutionResult {
	if entry.Err != nil {
		return reject(entry, entry.Err)
	}
	dec := entry.Decision
	switch dec.Action {
	case decision.ActionDirectOrder:
		return r.executeOrder(ctx, entry, dec, wallet)
	case decision.ActionStrategy:
		return r.executeStrategy(ctx, entry, dec)
	default:
		return reject(entry, fmt.Errorf("%w: %q", decision.ErrUnrecognizedAction, dec.Action))
	}
}

func (r *Router) executeOrder(ctx context.Context, entry decision.Entry, dec *decision.Decision, wallet *Wallet) decision.ExecutionResult {
	if dec.Side == decision.SideHold {
		return decision.ExecutionResult{
			Index: entry.Index, Asset: dec.Asset, Action: dec.Action,
			Accepted: true, Reason: "HOLD",
		}
	}
	pair, err := symbol.ParsePair(dec.Asset)
	if err != nil {
		return reject(entry, fmt.Errorf("%w: %s", ErrUnsupportedAsset, dec.Asset))
	}
	price, err := r.dispatcher.Price(ctx, pair.String())
	if err != nil {
		return reject(entry, err)
	}
	filters, err := r.dispatcher.Filters(ctx, pair.String())
	if err != nil {
		if errors.Is(err, ErrExchangeTransient) || errors.Is(err, ErrExchangeFatal) {
			return reject(entry, err)
		}
		return reject(entry, fmt.Errorf("%w: %s", ErrUnsupportedAsset, dec.Asset))
	}
	order, err := r.normalizer.NormalizeDecision(dec, wallet, price, filters)
	if err != nil {
		return reject(entry, err)
	}
	orderID, err := r.dispatcher.Submit(ctx, order)
	if err != nil {
		r.alertOnHalt(err)
		return reject(entry, err)
	}
	r.project(wallet, order)
	logger.Infof("订单成交: %s %s %s @ %s (id=%s)", order.Side, order.Size, order.Symbol, order.Price, orderID)
	return decision.ExecutionResult{
		Index: entry.Index, Asset: dec.Asset, Action: dec.Action,
		Accepted: true, OrderID: orderID,
	}
}

func (r *Router) executeStrategy(ctx context.Context, entry decision.Entry, dec *decision.Decision) decision.ExecutionResult {
	pair, err := symbol.ParsePair(dec.Asset)
	if err != nil {
		return reject(entry, fmt.Errorf("%w: %s", ErrUnsupportedAsset, dec.Asset))
	}
	if err := r.strategies.Activate(ctx, pair.String(), dec.StrategyName, dec.Params); err != nil {
		return reject(entry, fmt.Errorf("%w: %v", ErrInvalidStrategyParams, err))
	}
	logger.Infof("策略已切换: %s -> %s", pair, dec.StrategyName)
	return decision.ExecutionResult{
		Index: entry.Index, Asset: dec.Asset, Action: dec.Action, Accepted: true,
	}
}

// ExecuteSignal turns a strategy signal into an order against a fresh
// balance snapshot. sizePct <= 0 falls back to the configured default size.
func (r *Router) ExecuteSignal(ctx context.Context, pair string, side decision.Side, sizePct decimal.Decimal, origin string) (string, error) {
	balances, err := r.dispatcher.Balances(ctx)
	if err != nil {
		return "", err
	}
	wallet := NewWallet(balances)
	price, err := r.dispatcher.Price(ctx, pair)
	if err != nil {
		return "", err
	}
	filters, err := r.dispatcher.Filters(ctx, pair)
	if err != nil {
		return "", err
	}
	order, err := r.normalizer.NormalizeSignal(pair, side, sizePct, origin, wallet, price, filters)
	if err != nil {
		return "", err
	}
	orderID, err := r.dispatcher.Submit(ctx, order)
	if err != nil {
		r.alertOnHalt(err)
		return "", err
	}
	logger.Infof("策略订单成交: %s %s %s @ %s (origin=%s id=%s)",
		order.Side, order.Size, order.Symbol, order.Price, origin, orderID)
	return orderID, nil
}

func (r *Router) project(wallet *Wallet, order *Order) {
	switch order.Side {
	case decision.SideBuy:
		wallet.ApplyBuy(order.Base, order.Quote, order.Size, order.Price, r.normalizer.FeeRate())
	case decision.SideSell:
		wallet.ApplySell(order.Base, order.Quote, order.Size, order.Price, r.normalizer.FeeRate())
	}
}

func (r *Router) finish(ctx context.Context, batchID string, entry decision.Entry, result decision.ExecutionResult) decision.ExecutionResult {
	if r.recorder != nil {
		r.recorder.RecordExecution(ctx, batchID, entry, result)
	}
	if !result.Accepted {
		logger.Warnf("决策条目被拒绝 (index=%d asset=%s): %s", result.Index, result.Asset, result.Reason)
	}
	return result
}

func (r *Router) alertOnHalt(err error) {
	if r.notifier == nil {
		return
	}
	if errors.Is(err, ErrExchangeFatal) || errors.Is(err, ErrTradingHalted) {
		_ = r.notifier.SendText(fmt.Sprintf("⛔️ 交易已熔断: %s", summarize(err)))
	}
}

func reject(entry decision.Entry, err error) decision.ExecutionResult {
	result := decision.ExecutionResult{
		Index:    entry.Index,
		Accepted: false,
		Reason:   Reason(err),
	}
	if entry.Decision != nil {
		result.Asset = entry.Decision.Asset
		result.Action = entry.Decision.Action
	}
	return result
}
