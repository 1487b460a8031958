package executor

import (
	"github.com/shopspring/decimal"

	"sibyl/internal/decision"
)

// Order is a fully normalized market order: symbol resolved, size quantized
// to the exchange step, funds verified against the projected wallet.
type Order struct {
	Symbol string // canonical pair, e.g. "BTC/USDT"
	Base   string
	Quote  string
	Side   decision.Side
	Size   decimal.Decimal
	Price  decimal.Decimal // reference price used for sizing and funds checks
	Origin string          // "decision" or the emitting strategy name
}

// SymbolFilters is the sizing contract an exchange publishes per pair.
// Zero-valued fields mean the exchange imposes no such bound.
type SymbolFilters struct {
	StepSize    decimal.Decimal
	MinQty      decimal.Decimal
	MinNotional decimal.Decimal
}

// QuantizeSize rounds a raw size down onto the step grid. A zero step
// passes the size through unchanged.
func (f SymbolFilters) QuantizeSize(size decimal.Decimal) decimal.Decimal {
	if f.StepSize.IsZero() || size.IsZero() {
		return size
	}
	steps := size.Div(f.StepSize).Floor()
	return steps.Mul(f.StepSize)
}
