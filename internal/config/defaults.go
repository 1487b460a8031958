package config

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":9992"
	defaultAppLogPath       = "/data/logs/sibyl.log"
	defaultAppLLMLogPath    = "/data/logs/sibyl-llm.log"
	defaultExchangeName     = "binance"
	defaultExchangeTimeout  = 15
	defaultMarketInterval   = "1h"
	defaultMarketHistory    = 300
	defaultAITimeout        = 120
	defaultAIOffset         = 10
	defaultAIPromptDir      = "prompts"
	defaultNewsTimeout      = 60
	defaultNewsInterval     = 60
	defaultNewsMaxItems     = 10
	defaultCatalogPath      = "configs/strategies.yaml"
	defaultFeeRate          = 0.001
	defaultOrderSize        = 0.01
	defaultMaxRetries       = 3
	defaultRetryBaseMS      = 500
	defaultRetryMaxMS       = 8000
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 60
	defaultStorePath        = "/data/db/sibyl.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.News.applyDefaults(keys)
	c.Strategy.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.llm_log_path", &a.LLMLog, defaultAppLLMLogPath),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchangeName),
		intFieldDefault("exchange.timeout_seconds", &e.TimeoutSeconds, defaultExchangeTimeout),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.interval", &m.Interval, defaultMarketInterval),
		intFieldDefault("market.history_limit", &m.HistoryLimit, defaultMarketHistory),
	)
	if len(m.Symbols) == 0 && !keys.isSet("market.symbols") {
		m.Symbols = []string{"BTC/USDT"}
	}
}

func (a *AIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("ai.timeout_seconds", &a.TimeoutSeconds, defaultAITimeout),
		intFieldDefault("ai.decision_offset_seconds", &a.DecisionOffsetSeconds, defaultAIOffset),
		stringFieldDefault("ai.prompt_dir", &a.PromptDir, defaultAIPromptDir),
	)
}

func (n *NewsConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("news.timeout_seconds", &n.TimeoutSeconds, defaultNewsTimeout),
		intFieldDefault("news.interval_minutes", &n.IntervalMinutes, defaultNewsInterval),
		intFieldDefault("news.max_items", &n.MaxItems, defaultNewsMaxItems),
	)
}

func (s *StrategyConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("strategy.catalog_path", &s.CatalogPath, defaultCatalogPath),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.fee_rate",
			need:  func() bool { return t.FeeRate <= 0 },
			apply: func() { t.FeeRate = defaultFeeRate },
		},
		fieldDefault{
			key:   "trading.default_size",
			need:  func() bool { return t.DefaultSize <= 0 },
			apply: func() { t.DefaultSize = defaultOrderSize },
		},
		intFieldDefault("trading.max_retries", &t.MaxRetries, defaultMaxRetries),
		intFieldDefault("trading.retry_base_ms", &t.RetryBaseMS, defaultRetryBaseMS),
		intFieldDefault("trading.retry_max_ms", &t.RetryMaxMS, defaultRetryMaxMS),
		intFieldDefault("trading.breaker_threshold", &t.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("trading.breaker_timeout_seconds", &t.BreakerTimeoutSec, defaultBreakerTimeout),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need == nil || def.need() {
			def.apply()
		}
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
