package prompt

import (
	"os"
	"path/filepath"
	"strings"
)

const strategiesPlaceholder = "{{STRATEGIES}}"

const defaultSystem = `You are the decision engine of an automated BTC spot trading system.
You receive a market snapshot (price history, indicators) and a news digest.
Reply with ONLY a JSON array of decision objects, no prose outside the array.

Each decision object:
{
  "analysis": "<short reasoning>",
  "action": "DIRECT_ORDER" | "STRATEGY",
  "asset": "BTC",
  // DIRECT_ORDER only:
  "side": "BUY" | "SELL" | "HOLD",
  "size": <base asset amount, optional>,
  "size_pct": <fraction of balance 0..1, optional>,
  // STRATEGY only:
  "strategy_name": "<one of the available strategies>",
  "params": { ... }
}

Rules:
- Emit at most one STRATEGY entry per asset; it replaces the running strategy.
- Omit size and size_pct to use the configured default order size.
- Use HOLD when no direct action is warranted.

` + strategiesPlaceholder + `
`

// Builder renders the system and user prompts for a decision cycle. A file
// named system.txt in the prompt dir overrides the embedded template; the
// {{STRATEGIES}} placeholder is substituted in either case.
type Builder struct {
	dir string
}

func NewBuilder(dir string) *Builder {
	return &Builder{dir: strings.TrimSpace(dir)}
}

func (b *Builder) System(strategiesBlock string) string {
	tmpl := defaultSystem
	if b.dir != "" {
		if raw, err := os.ReadFile(filepath.Join(b.dir, "system.txt")); err == nil && len(raw) > 0 {
			tmpl = string(raw)
		}
	}
	return strings.ReplaceAll(tmpl, strategiesPlaceholder, strategiesBlock)
}

// User assembles the per-cycle context. Empty sections are left out.
func (b *Builder) User(snapshotJSON, newsDigest, statusJSON string) string {
	var sb strings.Builder
	sb.WriteString("## Market Snapshot\n")
	sb.WriteString(snapshotJSON)
	sb.WriteString("\n")
	if strings.TrimSpace(newsDigest) != "" {
		sb.WriteString("\n## News Digest\n")
		sb.WriteString(newsDigest)
		sb.WriteString("\n")
	}
	if strings.TrimSpace(statusJSON) != "" {
		sb.WriteString("\n## Active Strategies\n")
		sb.WriteString(statusJSON)
		sb.WriteString("\n")
	}
	sb.WriteString("\nRespond with the JSON decision array now.")
	return sb.String()
}
