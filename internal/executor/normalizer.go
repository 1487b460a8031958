package executor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
	"sibyl/internal/pkg/symbol"
)

var one = decimal.NewFromInt(1)

// Normalizer turns a raw decision (or strategy signal) into an executable
// market order. All money math runs on decimals; the only float entry points
// are the json.Number fields of the decision itself, converted via string.
//
// The pipeline is: resolve pair, resolve size (explicit > percentage >
// default), quantize down to the exchange step, then verify funds against
// the supplied wallet view.
type Normalizer struct {
	feeRate     decimal.Decimal
	defaultSize decimal.Decimal
}

func NewNormalizer(feeRate, defaultSize decimal.Decimal) *Normalizer {
	return &Normalizer{feeRate: feeRate, defaultSize: defaultSize}
}

func (n *Normalizer) FeeRate() decimal.Decimal { return n.feeRate }

// NormalizeDecision builds an order from a DIRECT_ORDER decision entry.
func (n *Normalizer) NormalizeDecision(dec *decision.Decision, wallet *Wallet, price decimal.Decimal, filters SymbolFilters) (*Order, error) {
	pair, err := symbol.ParsePair(dec.Asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, dec.Asset)
	}
	size, err := n.resolveSize(dec, wallet, pair, price)
	if err != nil {
		return nil, err
	}
	return n.build(pair, dec.Side, size, price, filters, wallet, "decision")
}

// NormalizeSignal builds an order from a strategy signal. sizePct, when
// positive, is resolved lazily against the wallet fetched at emission time;
// otherwise the configured default size applies.
func (n *Normalizer) NormalizeSignal(asset string, side decision.Side, sizePct decimal.Decimal, origin string, wallet *Wallet, price decimal.Decimal, filters SymbolFilters) (*Order, error) {
	pair, err := symbol.ParsePair(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, asset)
	}
	var size decimal.Decimal
	if sizePct.IsPositive() {
		size = n.fractionalSize(wallet, pair, side, sizePct, price)
	} else {
		size = n.defaultSize
	}
	return n.build(pair, side, size, price, filters, wallet, origin)
}

func (n *Normalizer) resolveSize(dec *decision.Decision, wallet *Wallet, pair symbol.Pair, price decimal.Decimal) (decimal.Decimal, error) {
	if dec.Size != "" {
		size, err := decimal.NewFromString(dec.Size.String())
		if err != nil || !size.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: size %q", ErrInvalidSize, dec.Size)
		}
		return size, nil
	}
	if dec.SizePct != "" {
		pct, err := decimal.NewFromString(dec.SizePct.String())
		if err != nil || !pct.IsPositive() || pct.GreaterThan(one) {
			return decimal.Zero, fmt.Errorf("%w: size_pct %q", ErrInvalidSize, dec.SizePct)
		}
		return n.fractionalSize(wallet, pair, dec.Side, pct, price), nil
	}
	return n.defaultSize, nil
}

// fractionalSize converts a wallet fraction into a base-asset size. For a
// BUY the fraction draws on the quote balance (net of the fee surcharge so
// pct=1 spends the whole balance, not 1+fee of it); for a SELL it draws on
// the base balance directly.
func (n *Normalizer) fractionalSize(wallet *Wallet, pair symbol.Pair, side decision.Side, pct, price decimal.Decimal) decimal.Decimal {
	switch side {
	case decision.SideBuy:
		if price.IsZero() {
			return decimal.Zero
		}
		budget := wallet.Balance(pair.Quote).Mul(pct)
		return budget.Div(price.Mul(one.Add(n.feeRate)))
	case decision.SideSell:
		return wallet.Balance(pair.Base).Mul(pct)
	default:
		return decimal.Zero
	}
}

func (n *Normalizer) build(pair symbol.Pair, side decision.Side, size, price decimal.Decimal, filters SymbolFilters, wallet *Wallet, origin string) (*Order, error) {
	if side != decision.SideBuy && side != decision.SideSell {
		return nil, fmt.Errorf("%w: side %q not executable", ErrInvalidSize, side)
	}
	if !size.IsPositive() {
		return nil, fmt.Errorf("%w: resolved size %s", ErrInvalidSize, size)
	}
	quantized := filters.QuantizeSize(size)
	if quantized.IsZero() {
		return nil, fmt.Errorf("%w: size %s below step %s", ErrInvalidSize, size, filters.StepSize)
	}
	if !filters.MinQty.IsZero() && quantized.LessThan(filters.MinQty) {
		return nil, fmt.Errorf("%w: size %s below minimum %s", ErrInvalidSize, quantized, filters.MinQty)
	}
	if !filters.MinNotional.IsZero() && quantized.Mul(price).LessThan(filters.MinNotional) {
		return nil, fmt.Errorf("%w: notional %s below minimum %s", ErrInvalidSize, quantized.Mul(price), filters.MinNotional)
	}

	switch side {
	case decision.SideBuy:
		cost := quantized.Mul(price).Mul(one.Add(n.feeRate))
		if cost.GreaterThan(wallet.Balance(pair.Quote)) {
			return nil, fmt.Errorf("%w: need %s %s, have %s", ErrInsufficientFunds, cost, pair.Quote, wallet.Balance(pair.Quote))
		}
	case decision.SideSell:
		if quantized.GreaterThan(wallet.Balance(pair.Base)) {
			return nil, fmt.Errorf("%w: need %s %s, have %s", ErrInsufficientFunds, quantized, pair.Base, wallet.Balance(pair.Base))
		}
	}

	return &Order{
		Symbol: pair.String(),
		Base:   pair.Base,
		Quote:  pair.Quote,
		Side:   side,
		Size:   quantized,
		Price:  price,
		Origin: origin,
	}, nil
}
