package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.News.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.NormalizedSymbols()) == 0 {
		return fmt.Errorf("market.symbols requires at least one symbol")
	}
	if m.HistoryLimit < 50 || m.HistoryLimit > 1000 {
		return fmt.Errorf("market.history_limit must be in [50,1000]")
	}
	switch m.Interval {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d":
	default:
		return fmt.Errorf("market.interval not supported: %s", m.Interval)
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	if a.DecisionOffsetSeconds < 0 {
		return fmt.Errorf("ai.decision_offset_seconds must be >= 0")
	}
	return nil
}

func (n *NewsConfig) validate() error {
	if !n.Enabled {
		return nil
	}
	if strings.TrimSpace(n.APIURL) == "" {
		return fmt.Errorf("news.api_url cannot be empty when news is enabled")
	}
	if strings.TrimSpace(n.Model) == "" {
		return fmt.Errorf("news.model cannot be empty when news is enabled")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.FeeRate < 0 || t.FeeRate >= 1 {
		return fmt.Errorf("trading.fee_rate must be in [0,1)")
	}
	if t.DefaultSize <= 0 {
		return fmt.Errorf("trading.default_size must be > 0")
	}
	if t.MaxRetries < 0 {
		return fmt.Errorf("trading.max_retries must be >= 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" || strings.TrimSpace(tg.ChatID) == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
