package jsonutil

import "strings"

const codeFence = "```"

// ExtractJSONArray pulls the first bracket-balanced JSON array out of free
// text. LLM replies routinely wrap the decision array in prose or a fenced
// code block; both forms are handled.
func ExtractJSONArray(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := extractFromFence(raw); ok {
		if arr, ok := balancedSlice(block, '[', ']'); ok {
			return arr, true
		}
		return block, true
	}
	return balancedSlice(raw, '[', ']')
}

// ExtractJSONObject pulls the first brace-balanced JSON object.
func ExtractJSONObject(raw string) (string, bool) {
	return balancedSlice(strings.TrimSpace(raw), '{', '}')
}

func extractFromFence(raw string) (string, bool) {
	start := strings.Index(raw, codeFence)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(codeFence):]
	end := strings.Index(rest, codeFence)
	if end == -1 {
		return "", false
	}
	block := strings.TrimLeft(rest[:end], "\r\n")
	// Drop a language tag line like "json".
	if idx := strings.Index(block, "\n"); idx != -1 {
		first := strings.TrimSpace(block[:idx])
		if first != "" && !strings.ContainsAny(first, "[{") {
			block = block[idx+1:]
		}
	}
	block = strings.TrimSpace(block)
	if block == "" {
		return "", false
	}
	return block, true
}

func balancedSlice(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch ch {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(raw[start : i+1]), true
			}
		}
	}
	return "", false
}
