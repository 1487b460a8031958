package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
	"sibyl/internal/logger"
	"sibyl/internal/market"
)

// SignalRouter turns a strategy signal into an exchange order. Implemented
// by the executor's router.
type SignalRouter interface {
	ExecuteSignal(ctx context.Context, pair string, side decision.Side, sizePct decimal.Decimal, origin string) (string, error)
}

// Notifier pushes operator-facing alerts.
type Notifier interface {
	SendText(text string) error
}

// Checkpoint is the durable record of a strategy assignment. Saved on every
// transition so a restart resumes the same strategies (with fresh, empty
// candle history).
type Checkpoint struct {
	Pair      string
	Strategy  string
	Params    Params
	Status    string // "ACTIVE" | "STOPPED"
	StartedAt time.Time
}

// CheckpointStore persists strategy assignments.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	ActiveCheckpoints(ctx context.Context) ([]Checkpoint, error)
}

// InstanceStatus is the status-API view of one running instance.
type InstanceStatus struct {
	Pair       string    `json:"pair"`
	Strategy   string    `json:"strategy"`
	StartedAt  time.Time `json:"started_at"`
	LastCandle time.Time `json:"last_candle"`
	LastSignal string    `json:"last_signal"`
}

// Manager keeps at most one strategy instance per pair. Activating a new
// strategy for a pair stops the old instance first and waits for its runner
// to drain, so two instances can never emit orders for the same pair at
// once. An in-flight evaluation still finishes and routes before the old
// instance is considered stopped.
type Manager struct {
	catalog      *Catalog
	router       SignalRouter
	feed         market.Feed
	store        CheckpointStore
	notifier     Notifier
	interval     string
	historyLimit int

	mu      sync.Mutex
	runners map[string]*runner
}

func NewManager(catalog *Catalog, router SignalRouter, feed market.Feed, store CheckpointStore, notifier Notifier, interval string, historyLimit int) *Manager {
	return &Manager{
		catalog:      catalog,
		router:       router,
		feed:         feed,
		store:        store,
		notifier:     notifier,
		interval:     interval,
		historyLimit: historyLimit,
		runners:      make(map[string]*runner),
	}
}

// Activate swaps the pair onto the named strategy. Params are validated
// against the catalog before the old instance is touched, so a rejected
// directive leaves the running strategy untouched.
func (m *Manager) Activate(ctx context.Context, pair, name string, rawParams map[string]any) error {
	params, err := m.catalog.Resolve(name, rawParams)
	if err != nil {
		return err
	}
	engine, err := New(name, params)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.runners[pair]
	delete(m.runners, pair)
	m.mu.Unlock()
	if old != nil {
		old.stop()
		logger.Infof("策略 %s@%s 已停止（被 %s 取代）", old.engine.Name(), pair, name)
	}

	r := newRunner(pair, engine, decimal.NewFromFloat(params.Float("size_pct", 0)), m)
	m.mu.Lock()
	m.runners[pair] = r
	m.mu.Unlock()
	r.start()

	m.checkpoint(ctx, Checkpoint{
		Pair: pair, Strategy: name, Params: params,
		Status: "ACTIVE", StartedAt: r.startedAt,
	})
	return nil
}

// Deactivate stops the pair's strategy, if any, and records the stop.
func (m *Manager) Deactivate(ctx context.Context, pair string) bool {
	m.mu.Lock()
	r := m.runners[pair]
	delete(m.runners, pair)
	m.mu.Unlock()
	if r == nil {
		return false
	}
	r.stop()
	m.checkpoint(ctx, Checkpoint{
		Pair: pair, Strategy: r.engine.Name(),
		Status: "STOPPED", StartedAt: r.startedAt,
	})
	return true
}

// OnCandle routes a closed candle to the pair's runner. Non-final updates
// are dropped here so engines only ever see closed candles.
func (m *Manager) OnCandle(evt market.CandleEvent) {
	if !evt.Final {
		return
	}
	m.mu.Lock()
	r := m.runners[evt.Symbol]
	m.mu.Unlock()
	if r != nil {
		r.deliver(evt.Candle)
	}
}

// Restore re-activates the strategies checkpointed as ACTIVE. Candle
// history always starts empty; the runner refetches its warm-up window.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	checkpoints, err := m.store.ActiveCheckpoints(ctx)
	if err != nil {
		return fmt.Errorf("load strategy checkpoints failed: %w", err)
	}
	for _, cp := range checkpoints {
		if err := m.Activate(ctx, cp.Pair, cp.Strategy, cp.Params); err != nil {
			logger.Errorf("恢复策略失败 %s@%s: %v", cp.Strategy, cp.Pair, err)
			continue
		}
		logger.Infof("已恢复策略 %s@%s", cp.Strategy, cp.Pair)
	}
	return nil
}

// Shutdown stops every runner and waits for them to drain.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runners := make([]*runner, 0, len(m.runners))
	for pair, r := range m.runners {
		runners = append(runners, r)
		delete(m.runners, pair)
	}
	m.mu.Unlock()
	for _, r := range runners {
		r.stop()
	}
}

// Status reports all running instances sorted by pair.
func (m *Manager) Status() []InstanceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]InstanceStatus, 0, len(m.runners))
	for pair, r := range m.runners {
		out = append(out, r.status(pair))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out
}

func (m *Manager) checkpoint(ctx context.Context, cp Checkpoint) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveCheckpoint(ctx, cp); err != nil {
		logger.Errorf("保存策略检查点失败 %s@%s: %v", cp.Strategy, cp.Pair, err)
	}
}

func (m *Manager) alert(text string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.SendText(text); err != nil {
		logger.Warnf("发送通知失败: %v", err)
	}
}
