package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
ai:
  api_url: "https://api.example.com/v1/chat/completions"
  model: "deepseek-chat"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", minimalConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":9992", cfg.App.HTTPAddr)
	assert.Equal(t, "binance", cfg.Exchange.Name)
	assert.Equal(t, []string{"BTC/USDT"}, cfg.Market.NormalizedSymbols())
	assert.Equal(t, "1h", cfg.Market.Interval)
	assert.Equal(t, 300, cfg.Market.HistoryLimit)
	assert.Equal(t, 0.001, cfg.Trading.FeeRate)
	assert.Equal(t, 0.01, cfg.Trading.DefaultSize)
	assert.Equal(t, 3, cfg.Trading.MaxRetries)
	assert.Equal(t, 5, cfg.Trading.BreakerThreshold)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	body := minimalConfig + `
market:
  symbols: ["eth/usdt", "ETH/USDT", "sol/usdt"]
  interval: "15m"
  history_limit: 100
trading:
  fee_rate: 0.002
  dry_run: true
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ETH/USDT", "SOL/USDT"}, cfg.Market.NormalizedSymbols())
	assert.Equal(t, "15m", cfg.Market.Interval)
	assert.Equal(t, 100, cfg.Market.HistoryLimit)
	assert.Equal(t, 0.002, cfg.Trading.FeeRate)
	assert.True(t, cfg.Trading.DryRun)
}

func TestLoadIncludeMerging(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", minimalConfig+`
market:
  interval: "4h"
`)
	path := writeConfig(t, dir, "config.yaml", `
include:
  - base.yaml
market:
  interval: "1h"
  history_limit: 200
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	// the including file overrides the included one.
	assert.Equal(t, "1h", cfg.Market.Interval)
	assert.Equal(t, 200, cfg.Market.HistoryLimit)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	body := minimalConfig + `
market:
  interval: "7m"
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsHistoryLimitOutOfRange(t *testing.T) {
	body := minimalConfig + `
market:
  history_limit: 10
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingAIModel(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
ai:
  api_url: "https://api.example.com"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsTelegramWithoutToken(t *testing.T) {
	body := minimalConfig + `
notify:
  telegram:
    enabled: true
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsFeeRateAboveOne(t *testing.T) {
	body := minimalConfig + `
trading:
  fee_rate: 1.5
`
	path := writeConfig(t, t.TempDir(), "config.yaml", body)
	_, err := Load(path)
	require.Error(t, err)
}
