package utils

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`^#[0-9A-Z]+$`)

// NormalizeTag canonicalizes user-entered clan and player tags: whitespace
// trimmed, uppercased, the letter O folded to zero (the game's tag alphabet
// has no O), and a leading # ensured.
func NormalizeTag(raw string) string {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	tag = strings.TrimPrefix(tag, "#")
	tag = strings.ReplaceAll(tag, "O", "0")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// ValidTag reports whether a normalized tag looks like a game tag.
func ValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}
