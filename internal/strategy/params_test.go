package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeParamsFixesAliases(t *testing.T) {
	params := NormalizeParams(map[string]any{"IPLIPLIER": 3.5})
	assert.Equal(t, 3.5, params.Float("multiplier", 0))
}

func TestNormalizeParamsCoercesStrings(t *testing.T) {
	params := NormalizeParams(map[string]any{
		"period":  "14",
		"comment": "keep me",
	})
	assert.Equal(t, 14, params.Int("period", 0))
	assert.Equal(t, "keep me", params["comment"])
}

func TestNormalizeParamsHandlesJSONNumbers(t *testing.T) {
	params := NormalizeParams(map[string]any{
		"period":     json.Number("14"),
		"multiplier": json.Number("2.5"),
	})
	assert.Equal(t, 14, params.Int("period", 0))
	assert.Equal(t, 2.5, params.Float("multiplier", 0))
}

func TestParamsDefaults(t *testing.T) {
	params := Params{}
	assert.Equal(t, 14, params.Int("period", 14))
	assert.Equal(t, 2.0, params.Float("multiplier", 2.0))
}

func TestNormalizeParamsNil(t *testing.T) {
	params := NormalizeParams(nil)
	assert.NotNil(t, params)
	assert.Empty(t, params)
}
