package decision

import (
	"encoding/json"
	"strings"
)

// Action 区分两类决策：直接下单与策略启停。
type Action string

const (
	ActionDirectOrder Action = "DIRECT_ORDER"
	ActionStrategy    Action = "STRATEGY"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

// Decision is one entry of the model's decision array. DIRECT_ORDER entries
// carry side/size; STRATEGY entries carry strategy_name/params. Size and
// SizePct stay json.Number so the executor can convert them to decimal
// without a float round-trip.
type Decision struct {
	Analysis     string         `json:"analysis"`
	Action       Action         `json:"action"`
	Asset        string         `json:"asset"`
	Side         Side           `json:"side,omitempty"`
	Size         json.Number    `json:"size,omitempty"`
	SizePct      json.Number    `json:"size_pct,omitempty"`
	StrategyName string         `json:"strategy_name,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// Entry pairs a parsed decision with its array index. Invalid entries keep
// their error so the rest of the batch still executes.
type Entry struct {
	Index    int
	Decision *Decision
	Err      error
}

// ExecutionResult is the executor's verdict for one entry.
type ExecutionResult struct {
	Index    int    `json:"index"`
	Asset    string `json:"asset"`
	Action   Action `json:"action"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
}

func normalizeAction(raw string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DIRECT_ORDER":
		return ActionDirectOrder, true
	case "STRATEGY":
		return ActionStrategy, true
	default:
		return "", false
	}
}

func normalizeSide(raw string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return SideBuy, true
	case "SELL":
		return SideSell, true
	case "HOLD":
		return SideHold, true
	default:
		return "", false
	}
}
