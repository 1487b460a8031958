package executor

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"sibyl/internal/decision"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testWallet() *Wallet {
	return NewWallet(map[string]decimal.Decimal{
		"BTC":  dec("1.04706"),
		"USDT": dec("3850.0282"),
	})
}

func testNormalizer() *Normalizer {
	return NewNormalizer(dec("0.001"), dec("0.01"))
}

func TestNormalizeBuyWithinBalance(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
		Size:   json.Number("0.01"),
	}
	order, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.NoError(t, err)
	require.Equal(t, "BTC/USDT", order.Symbol)
	require.True(t, order.Size.Equal(dec("0.01")))
	// cost = 0.01 * 95600 * 1.001 = 956.956 <= 3850.0282
}

func TestNormalizeBuyInsufficientFunds(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
		Size:   json.Number("0.05"),
	}
	// cost = 0.05 * 95600 * 1.001 = 4784.78 > 3850.0282
	_, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestNormalizeBuyExactBalanceAccepted(t *testing.T) {
	n := testNormalizer()
	wallet := NewWallet(map[string]decimal.Decimal{"USDT": dec("956.956")})
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
		Size:   json.Number("0.01"),
	}
	// cost equals the balance exactly; the boundary is accept.
	order, err := n.NormalizeDecision(d, wallet, dec("95600"), SymbolFilters{})
	require.NoError(t, err)
	require.True(t, order.Size.Equal(dec("0.01")))
}

func TestNormalizeSellInsufficientFunds(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideSell,
		Size:   json.Number("2.0"),
	}
	_, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestNormalizeSellWithinBalance(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideSell,
		Size:   json.Number("1.0"),
	}
	order, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.NoError(t, err)
	require.Equal(t, decision.SideSell, order.Side)
}

func TestQuantizeRoundsDown(t *testing.T) {
	n := testNormalizer()
	filters := SymbolFilters{StepSize: dec("0.001")}
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
		Size:   json.Number("0.0129"),
	}
	order, err := n.NormalizeDecision(d, testWallet(), dec("95600"), filters)
	require.NoError(t, err)
	require.True(t, order.Size.Equal(dec("0.012")), "got %s", order.Size)
}

func TestQuantizeToZeroRejected(t *testing.T) {
	n := testNormalizer()
	filters := SymbolFilters{StepSize: dec("0.01")}
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
		Size:   json.Number("0.004"),
	}
	_, err := n.NormalizeDecision(d, testWallet(), dec("95600"), filters)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestSizePctResolvesAgainstQuote(t *testing.T) {
	n := testNormalizer()
	wallet := NewWallet(map[string]decimal.Decimal{"USDT": dec("1001")})
	d := &decision.Decision{
		Action:  decision.ActionDirectOrder,
		Asset:   "BTC",
		Side:    decision.SideBuy,
		SizePct: json.Number("1"),
	}
	// budget 1001 / (100 * 1.001) = 10 BTC exactly; spending it all must
	// not overshoot the balance.
	order, err := n.NormalizeDecision(d, wallet, dec("100"), SymbolFilters{})
	require.NoError(t, err)
	require.True(t, order.Size.Equal(dec("10")), "got %s", order.Size)
}

func TestSizePctSellResolvesAgainstBase(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action:  decision.ActionDirectOrder,
		Asset:   "BTC",
		Side:    decision.SideSell,
		SizePct: json.Number("0.5"),
	}
	order, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.NoError(t, err)
	require.True(t, order.Size.Equal(dec("0.52353")), "got %s", order.Size)
}

func TestDefaultSizeApplies(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "BTC",
		Side:   decision.SideBuy,
	}
	order, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.NoError(t, err)
	require.True(t, order.Size.Equal(dec("0.01")))
}

func TestUnsupportedAssetRejected(t *testing.T) {
	n := testNormalizer()
	d := &decision.Decision{
		Action: decision.ActionDirectOrder,
		Asset:  "",
		Side:   decision.SideBuy,
	}
	_, err := n.NormalizeDecision(d, testWallet(), dec("95600"), SymbolFilters{})
	require.ErrorIs(t, err, ErrUnsupportedAsset)
}

func TestWalletProjection(t *testing.T) {
	wallet := testWallet()
	wallet.ApplyBuy("BTC", "USDT", dec("0.01"), dec("95600"), dec("0.001"))
	require.True(t, wallet.Balance("BTC").Equal(dec("1.05706")))
	require.True(t, wallet.Balance("USDT").Equal(dec("3850.0282").Sub(dec("956.956"))))
}
