package services

import (
	"strings"
)

// stripCodeFences removes a markdown code fence wrapping an LLM reply,
// with or without a language tag, so downstream JSON parsing sees the
// raw payload.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json")
		firstLine := strings.TrimSpace(trimmed[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// normalizeAbsent maps the model's "N/A" sentinel to an empty string
// so absence is represented uniformly in stored records.
func normalizeAbsent(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, "N/A") {
		return ""
	}
	return trimmed
}
