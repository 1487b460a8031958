package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArrayFenced(t *testing.T) {
	raw := "Reasoning first.\n```json\n[{\"a\": 1}, {\"b\": 2}]\n```\nDone."
	out, ok := ExtractJSONArray(raw)
	require.True(t, ok)
	assert.Equal(t, `[{"a": 1}, {"b": 2}]`, out)
}

func TestExtractJSONArrayFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n[1, 2, 3]\n```"
	out, ok := ExtractJSONArray(raw)
	require.True(t, ok)
	assert.Equal(t, "[1, 2, 3]", out)
}

func TestExtractJSONArrayInProse(t *testing.T) {
	raw := `My plan: [{"action": "HOLD"}] and nothing else.`
	out, ok := ExtractJSONArray(raw)
	require.True(t, ok)
	assert.Equal(t, `[{"action": "HOLD"}]`, out)
}

func TestExtractJSONArrayBracketsInsideStrings(t *testing.T) {
	raw := `[{"analysis": "price in [100, 110] band"}]`
	out, ok := ExtractJSONArray(raw)
	require.True(t, ok)
	assert.Equal(t, raw, out)
}

func TestExtractJSONArrayNone(t *testing.T) {
	_, ok := ExtractJSONArray("no structured content here")
	assert.False(t, ok)
}

func TestExtractJSONArrayUnbalanced(t *testing.T) {
	_, ok := ExtractJSONArray(`[{"a": 1}`)
	assert.False(t, ok)
}

func TestExtractJSONObject(t *testing.T) {
	out, ok := ExtractJSONObject(`prefix {"k": {"nested": [1]}} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"k": {"nested": [1]}}`, out)
}
