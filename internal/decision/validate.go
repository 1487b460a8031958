package decision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformed marks payloads (or entries) that do not match the decision
	// array contract.
	ErrMalformed = errors.New("malformed decision")
	// ErrUnrecognizedAction marks entries whose action is neither
	// DIRECT_ORDER nor STRATEGY.
	ErrUnrecognizedAction = errors.New("unrecognized action")
)

// validateEntry walks one array element and checks the structural contract
// before decoding. The checks mirror the prompt contract: every entry has
// analysis/action/asset; DIRECT_ORDER needs a side; STRATEGY needs a
// strategy_name.
func validateEntry(entry gjson.Result) error {
	if !entry.IsObject() {
		return fmt.Errorf("%w: entry is not an object", ErrMalformed)
	}
	actionRaw := entry.Get("action")
	if !actionRaw.Exists() || actionRaw.Type != gjson.String {
		return fmt.Errorf("%w: missing action", ErrMalformed)
	}
	action, ok := normalizeAction(actionRaw.String())
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnrecognizedAction, actionRaw.String())
	}
	asset := entry.Get("asset")
	if !asset.Exists() || asset.Type != gjson.String || strings.TrimSpace(asset.String()) == "" {
		return fmt.Errorf("%w: missing asset", ErrMalformed)
	}
	switch action {
	case ActionDirectOrder:
		side := entry.Get("side")
		if !side.Exists() || side.Type != gjson.String {
			return fmt.Errorf("%w: DIRECT_ORDER missing side", ErrMalformed)
		}
		if _, ok := normalizeSide(side.String()); !ok {
			return fmt.Errorf("%w: invalid side %q", ErrMalformed, side.String())
		}
		if err := validateNumericField(entry, "size"); err != nil {
			return err
		}
		if err := validateNumericField(entry, "size_pct"); err != nil {
			return err
		}
	case ActionStrategy:
		name := entry.Get("strategy_name")
		if !name.Exists() || name.Type != gjson.String || strings.TrimSpace(name.String()) == "" {
			return fmt.Errorf("%w: STRATEGY missing strategy_name", ErrMalformed)
		}
		if params := entry.Get("params"); params.Exists() && !params.IsObject() && params.Type != gjson.Null {
			return fmt.Errorf("%w: params must be an object", ErrMalformed)
		}
	}
	return nil
}

func validateNumericField(entry gjson.Result, field string) error {
	val := entry.Get(field)
	if !val.Exists() || val.Type == gjson.Null {
		return nil
	}
	if val.Type != gjson.Number {
		return fmt.Errorf("%w: %s must be a number", ErrMalformed, field)
	}
	if val.Float() <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrMalformed, field)
	}
	return nil
}
