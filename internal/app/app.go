package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sibyl/internal/collector"
	"sibyl/internal/config"
	"sibyl/internal/executor"
	"sibyl/internal/gateway/binance"
	"sibyl/internal/gateway/notifier"
	"sibyl/internal/gateway/provider"
	"sibyl/internal/logger"
	"sibyl/internal/market"
	"sibyl/internal/news"
	"sibyl/internal/pkg/circuit"
	"sibyl/internal/prompt"
	"sibyl/internal/scheduler"
	"sibyl/internal/store/sqlite"
	"sibyl/internal/strategy"
	httpapi "sibyl/internal/transport/http"
)

// Notifier is what both the executor and the strategy manager need.
type Notifier interface {
	SendText(text string) error
}

// App owns the wired component graph and the run loop.
type App struct {
	cfg *config.Config

	store     *sqlite.Store
	exchange  *binance.Client
	breaker   *circuit.Breaker
	router    *executor.Router
	catalog   *strategy.Catalog
	manager   *strategy.Manager
	decider   *provider.Client
	newsSvc   *news.Service
	collector *collector.Collector
	prompts   *prompt.Builder
	httpSrv   *httpapi.Server
	notifier  Notifier
}

// controllerFunc adapts a closure to the router's strategy-controller
// boundary, breaking the router<->manager construction cycle.
type controllerFunc func(ctx context.Context, pair, name string, params map[string]any) error

func (f controllerFunc) Activate(ctx context.Context, pair, name string, params map[string]any) error {
	return f(ctx, pair, name, params)
}

func NewApp(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	if cfg.Notify.Telegram.Enabled {
		a.notifier = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	} else {
		a.notifier = notifier.Noop{}
	}

	store, err := sqlite.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	a.store = store

	a.exchange = binance.New(binance.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Testnet:   cfg.Exchange.Testnet,
		Timeout:   time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
	})

	a.breaker = circuit.NewBreaker("orders",
		cfg.Trading.BreakerThreshold,
		time.Duration(cfg.Trading.BreakerTimeoutSec)*time.Second,
	)
	dispatcher := executor.NewDispatcher(a.exchange, executor.RetryPolicy{
		MaxRetries: cfg.Trading.MaxRetries,
		BaseDelay:  time.Duration(cfg.Trading.RetryBaseMS) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.Trading.RetryMaxMS) * time.Millisecond,
	}, a.breaker, cfg.Trading.DryRun)

	normalizer := executor.NewNormalizer(
		decimal.NewFromFloat(cfg.Trading.FeeRate),
		decimal.NewFromFloat(cfg.Trading.DefaultSize),
	)

	a.catalog, err = strategy.NewCatalog(cfg.Strategy.CatalogPath, cfg.Strategy.Watch)
	if err != nil {
		return nil, fmt.Errorf("加载策略目录失败: %w", err)
	}

	a.router = executor.NewRouter(dispatcher, normalizer,
		controllerFunc(func(ctx context.Context, pair, name string, params map[string]any) error {
			return a.manager.Activate(ctx, pair, name, params)
		}),
		store, a.notifier,
	)

	a.manager = strategy.NewManager(a.catalog, a.router, a.exchange, store, a.notifier,
		cfg.Market.Interval, cfg.Market.HistoryLimit)

	a.decider, err = provider.New("decision", provider.Config{
		APIURL:  cfg.AI.APIURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Headers: cfg.AI.Headers,
		Timeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	if cfg.News.Enabled {
		newsClient, err := provider.New("news", provider.Config{
			APIURL:  cfg.News.APIURL,
			APIKey:  cfg.News.APIKey,
			Model:   cfg.News.Model,
			Timeout: time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		a.newsSvc = news.NewService(newsClient, store,
			time.Duration(cfg.News.IntervalMinutes)*time.Minute, cfg.News.Model)
	}

	a.collector = collector.New(a.exchange, dispatcher)
	a.prompts = prompt.NewBuilder(cfg.AI.PromptDir)
	a.httpSrv = httpapi.NewServer(cfg.App.HTTPAddr, a.manager, a.breaker, store)

	return a, nil
}

// Run starts every service and blocks until ctx ends or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	if err := a.manager.Restore(ctx); err != nil {
		logger.Errorf("恢复策略检查点失败: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.httpSrv.Run(ctx) })

	g.Go(func() error { return a.runFeed(ctx) })

	g.Go(func() error {
		interval := scheduler.IntervalDuration(a.cfg.Market.Interval)
		offset := time.Duration(a.cfg.AI.DecisionOffsetSeconds) * time.Second
		sched := scheduler.NewAlignedScheduler(ctx, interval, offset)
		sched.RunImmediately = true
		sched.Start(func() { a.runCycle(ctx) })
		return ctx.Err()
	})

	if a.newsSvc != nil {
		g.Go(func() error { return a.newsSvc.Run(ctx) })
	}

	err := g.Wait()
	a.manager.Shutdown()
	if err == context.Canceled {
		return nil
	}
	return err
}

// runFeed subscribes the combined kline stream and pumps closed candles
// into the strategy manager.
func (a *App) runFeed(ctx context.Context) error {
	events, err := a.exchange.Subscribe(ctx, a.cfg.Market.NormalizedSymbols(), a.cfg.Market.Interval,
		market.SubscribeOptions{
			OnConnect:    func() { logger.Infof("K线流已连接") },
			OnDisconnect: func(err error) { logger.Warnf("K线流断开: %v", err) },
		})
	if err != nil {
		return fmt.Errorf("订阅K线失败: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return fmt.Errorf("K线流已关闭")
			}
			a.manager.OnCandle(evt)
		}
	}
}
