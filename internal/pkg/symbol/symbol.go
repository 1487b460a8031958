// Package symbol converts between display pairs ("BTC/USDT") and the
// exchange wire format ("BTCUSDT").
package symbol

import (
	"fmt"
	"strings"
)

var knownQuotes = []string{"USDT", "USDC", "BUSD", "BTC", "ETH"}

// DefaultQuote is assumed when a bare asset like "BTC" arrives.
const DefaultQuote = "USDT"

// Pair is a resolved trading pair.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// Exchange returns the wire format, e.g. "BTCUSDT".
func (p Pair) Exchange() string { return p.Base + p.Quote }

// ParsePair resolves a display pair, a bare wire pair, or a bare base asset
// (quoted against DefaultQuote) into its components.
func ParsePair(raw string) (Pair, error) {
	n := Normalize(raw)
	if n == "" {
		return Pair{}, fmt.Errorf("symbol: empty pair")
	}
	if idx := strings.Index(n, "/"); idx > 0 {
		return Pair{Base: n[:idx], Quote: n[idx+1:]}, nil
	}
	return Pair{Base: n, Quote: DefaultQuote}, nil
}

// Normalize returns the canonical display form BASE/QUOTE in upper case.
// Inputs already containing a slash are cleaned; bare pairs like "btcusdt"
// are split against the known quote currencies.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "/") {
		parts := strings.SplitN(s, "/", 2)
		base := strings.TrimSpace(parts[0])
		quote := strings.TrimSpace(parts[1])
		if base == "" || quote == "" {
			return ""
		}
		return base + "/" + quote
	}
	for _, q := range knownQuotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return s[:len(s)-len(q)] + "/" + q
		}
	}
	return s
}

// ToExchange strips the slash for REST/websocket calls.
func ToExchange(pair string) string {
	return strings.ReplaceAll(Normalize(pair), "/", "")
}

// Base returns the base asset of a pair, e.g. "BTC" for "BTC/USDT".
func Base(pair string) string {
	n := Normalize(pair)
	if idx := strings.Index(n, "/"); idx > 0 {
		return n[:idx]
	}
	return n
}

// Quote returns the quote asset of a pair, e.g. "USDT" for "BTC/USDT".
func Quote(pair string) string {
	n := Normalize(pair)
	if idx := strings.Index(n, "/"); idx >= 0 && idx+1 < len(n) {
		return n[idx+1:]
	}
	return ""
}
