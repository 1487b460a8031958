package strategy

import (
	"fmt"
	"sort"

	"sibyl/internal/market"
)

// Engine evaluates one closed-candle window. Evaluate must be pure: the
// same window always yields the same verdict, so re-delivered candles are
// harmless. Engines needing more context than Warmup candles return HOLD.
type Engine interface {
	Name() string
	Warmup() int
	Evaluate(window []market.Candle) Evaluation
}

type builderFunc func(params Params) (Engine, error)

var builders = map[string]builderFunc{
	"rsi":          newRSI,
	"stochastic":   newStochastic,
	"ma_crossover": newMACrossover,
	"macd":         newMACD,
	"bollinger":    newBollinger,
	"ichimoku":     newIchimoku,
	"range":        newRangeTrading,
	"atr_stop":     newATRStop,
}

// New builds an engine by catalog name with already-validated params.
func New(name string, params Params) (Engine, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return build(params)
}

// Known lists registered strategy names in stable order.
func Known() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
