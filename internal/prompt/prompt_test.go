package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSubstitutesStrategies(t *testing.T) {
	b := NewBuilder("")
	out := b.System("## Available Strategies\n1. rsi")
	assert.Contains(t, out, "1. rsi")
	assert.NotContains(t, out, "{{STRATEGIES}}")
	assert.Contains(t, out, "JSON array")
}

func TestSystemFileOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.txt"),
		[]byte("custom persona\n{{STRATEGIES}}\n"), 0o644))

	b := NewBuilder(dir)
	out := b.System("strategies here")
	assert.Contains(t, out, "custom persona")
	assert.Contains(t, out, "strategies here")
	assert.NotContains(t, out, "decision engine")
}

func TestUserSectionsOptional(t *testing.T) {
	b := NewBuilder("")

	full := b.User(`{"symbol":"BTC/USDT"}`, "digest text", `[{"pair":"BTC/USDT"}]`)
	assert.Contains(t, full, "## Market Snapshot")
	assert.Contains(t, full, "## News Digest")
	assert.Contains(t, full, "## Active Strategies")

	minimal := b.User(`{"symbol":"BTC/USDT"}`, "", "")
	assert.Contains(t, minimal, "## Market Snapshot")
	assert.NotContains(t, minimal, "## News Digest")
	assert.NotContains(t, minimal, "## Active Strategies")
}
