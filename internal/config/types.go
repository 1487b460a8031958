package config

import "strings"

// Config 是 Sibyl 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Exchange ExchangeConfig `toml:"exchange"`
	Market   MarketConfig   `toml:"market"`
	AI       AIConfig       `toml:"ai"`
	News     NewsConfig     `toml:"news"`
	Strategy StrategyConfig `toml:"strategy"`
	Trading  TradingConfig  `toml:"trading"`
	Notify   NotifyConfig   `toml:"notify"`
	Store    StoreConfig    `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
}

// ExchangeConfig 描述现货交易所的访问方式。
type ExchangeConfig struct {
	Name           string `toml:"name"`
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	Testnet        bool   `toml:"testnet"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type MarketConfig struct {
	Symbols      []string `toml:"symbols"`
	Interval     string   `toml:"interval"`
	HistoryLimit int      `toml:"history_limit"`
}

// AIConfig 指向产生决策数组的 OpenAI 兼容接口。
type AIConfig struct {
	APIURL                string            `toml:"api_url"`
	APIKey                string            `toml:"api_key"`
	Model                 string            `toml:"model"`
	Headers               map[string]string `toml:"headers"`
	TimeoutSeconds        int               `toml:"timeout_seconds"`
	DecisionOffsetSeconds int               `toml:"decision_offset_seconds"`
	PromptDir             string            `toml:"prompt_dir"`
}

// NewsConfig 控制新闻检索（Perplexity 风格的搜索增强模型）。
type NewsConfig struct {
	Enabled         bool   `toml:"enabled"`
	APIURL          string `toml:"api_url"`
	APIKey          string `toml:"api_key"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IntervalMinutes int    `toml:"interval_minutes"`
	MaxItems        int    `toml:"max_items"`
}

type StrategyConfig struct {
	CatalogPath string `toml:"catalog_path"`
	Watch       bool   `toml:"watch"`
}

// TradingConfig 控制下单口径：手续费、缺省仓位、重试与熔断参数。
type TradingConfig struct {
	FeeRate           float64 `toml:"fee_rate"`
	DefaultSize       float64 `toml:"default_size"`
	DryRun            bool    `toml:"dry_run"`
	MaxRetries        int     `toml:"max_retries"`
	RetryBaseMS       int     `toml:"retry_base_ms"`
	RetryMaxMS        int     `toml:"retry_max_ms"`
	BreakerThreshold  int     `toml:"breaker_threshold"`
	BreakerTimeoutSec int     `toml:"breaker_timeout_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// NormalizedSymbols 返回去重后的大写交易对列表。
func (m MarketConfig) NormalizedSymbols() []string {
	seen := make(map[string]struct{}, len(m.Symbols))
	out := make([]string, 0, len(m.Symbols))
	for _, s := range m.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
