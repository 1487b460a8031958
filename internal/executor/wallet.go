package executor

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Wallet is a point-in-time balance view. During a batch the router clones
// the fetched wallet and projects each accepted order onto the clone, so a
// later entry cannot spend funds an earlier entry already committed.
type Wallet struct {
	balances map[string]decimal.Decimal
}

func NewWallet(balances map[string]decimal.Decimal) *Wallet {
	w := &Wallet{balances: make(map[string]decimal.Decimal, len(balances))}
	for asset, amount := range balances {
		w.balances[strings.ToUpper(asset)] = amount
	}
	return w
}

func (w *Wallet) Balance(asset string) decimal.Decimal {
	if w == nil {
		return decimal.Zero
	}
	return w.balances[strings.ToUpper(asset)]
}

func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return NewWallet(nil)
	}
	return NewWallet(w.balances)
}

// ApplyBuy debits the quote cost (including fee) and credits the base size.
func (w *Wallet) ApplyBuy(base, quote string, size, price, feeRate decimal.Decimal) {
	cost := size.Mul(price).Mul(decimal.NewFromInt(1).Add(feeRate))
	w.credit(base, size)
	w.credit(quote, cost.Neg())
}

// ApplySell debits the base size and credits the quote proceeds net of fee.
func (w *Wallet) ApplySell(base, quote string, size, price, feeRate decimal.Decimal) {
	proceeds := size.Mul(price).Mul(decimal.NewFromInt(1).Sub(feeRate))
	w.credit(base, size.Neg())
	w.credit(quote, proceeds)
}

func (w *Wallet) credit(asset string, delta decimal.Decimal) {
	asset = strings.ToUpper(asset)
	w.balances[asset] = w.balances[asset].Add(delta)
}

// Assets returns held asset codes in stable order, for logging.
func (w *Wallet) Assets() []string {
	out := make([]string, 0, len(w.balances))
	for asset, amount := range w.balances {
		if amount.IsZero() {
			continue
		}
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}
