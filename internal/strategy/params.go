package strategy

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Params 是策略参数集。数值可能以字符串形式出现（模型偶尔返回 "14"
// 而非 14），取值时做宽松转换。
type Params map[string]any

// 模型输出中反复出现的参数名笔误，按原样纠正。
var paramAliases = map[string]string{
	"ipliplier": "multiplier",
}

// NormalizeParams lower-cases keys, fixes known misspellings and converts
// numeric strings to numbers.
func NormalizeParams(raw map[string]any) Params {
	if raw == nil {
		return Params{}
	}
	out := make(Params, len(raw))
	for key, value := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		if alias, ok := paramAliases[key]; ok {
			key = alias
		}
		out[key] = coerce(value)
	}
	return out
}

func coerce(v any) any {
	switch val := v.(type) {
	case json.Number:
		if num, err := val.Float64(); err == nil {
			return num
		}
		return val.String()
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return val
		}
		if num, err := strconv.ParseFloat(s, 64); err == nil {
			return num
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = coerce(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = coerce(child)
		}
		return out
	default:
		return val
	}
}

func (p Params) Int(key string, def int) int {
	if f, ok := p.number(key); ok {
		return int(f)
	}
	return def
}

func (p Params) Float(key string, def float64) float64 {
	if f, ok := p.number(key); ok {
		return f
	}
	return def
}

func (p Params) number(key string) (float64, bool) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch val := raw.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
