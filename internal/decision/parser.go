package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"sibyl/internal/pkg/jsonutil"
)

// Parse extracts the decision array from a raw model reply and decodes each
// entry. A broken entry does not poison the batch: it is returned with its
// error attached while the remaining entries decode normally. Parse fails as
// a whole only when no JSON array can be located at all.
func Parse(raw string) ([]Entry, error) {
	payload, ok := jsonutil.ExtractJSONArray(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrMalformed)
	}
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("%w: extracted payload is not valid JSON", ErrMalformed)
	}
	doc := gjson.Parse(payload)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: payload is not an array", ErrMalformed)
	}

	var entries []Entry
	idx := 0
	doc.ForEach(func(_, item gjson.Result) bool {
		entry := Entry{Index: idx}
		if err := validateEntry(item); err != nil {
			entry.Err = err
		} else if dec, err := decodeEntry(item.Raw); err != nil {
			entry.Err = fmt.Errorf("%w: %v", ErrMalformed, err)
		} else {
			entry.Decision = dec
		}
		entries = append(entries, entry)
		idx++
		return true
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: decision array is empty", ErrMalformed)
	}
	return entries, nil
}

func decodeEntry(raw string) (*Decision, error) {
	var dec Decision
	reader := json.NewDecoder(strings.NewReader(raw))
	reader.UseNumber()
	if err := reader.Decode(&dec); err != nil {
		return nil, err
	}
	dec.Action, _ = normalizeAction(string(dec.Action))
	if dec.Side != "" {
		dec.Side, _ = normalizeSide(string(dec.Side))
	}
	dec.Asset = strings.ToUpper(strings.TrimSpace(dec.Asset))
	dec.StrategyName = strings.ToLower(strings.TrimSpace(dec.StrategyName))
	return &dec, nil
}
