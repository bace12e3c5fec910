package util

import "strings"

// SanitizeText strips invalid UTF-8 sequences and NUL bytes from ingested
// text before it reaches the extractor.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateText shortens a string to at most limit runes, appending an
// ellipsis when anything was cut. Used to keep logged text previews bounded.
func TruncateText(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
