package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT":  "BTC/USDT",
		"btc/usdt":  "BTC/USDT",
		" eth/usdt": "ETH/USDT",
		"btcusdt":   "BTC/USDT",
		"ETHBTC":    "ETH/BTC",
		"SOL":       "SOL",
		"":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestParsePairBareAsset(t *testing.T) {
	p, err := ParsePair("BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC", p.Base)
	assert.Equal(t, "USDT", p.Quote)
	assert.Equal(t, "BTC/USDT", p.String())
	assert.Equal(t, "BTCUSDT", p.Exchange())
}

func TestParsePairWirePair(t *testing.T) {
	p, err := ParsePair("ethusdt")
	require.NoError(t, err)
	assert.Equal(t, "ETH", p.Base)
	assert.Equal(t, "USDT", p.Quote)
}

func TestParsePairEmpty(t *testing.T) {
	_, err := ParsePair("  ")
	require.Error(t, err)
}

func TestToExchange(t *testing.T) {
	assert.Equal(t, "BTCUSDT", ToExchange("BTC/USDT"))
	assert.Equal(t, "BTCUSDT", ToExchange("btcusdt"))
}

func TestBaseQuote(t *testing.T) {
	assert.Equal(t, "BTC", Base("BTC/USDT"))
	assert.Equal(t, "USDT", Quote("BTC/USDT"))
	assert.Equal(t, "", Quote("SOL"))
}
