package domain

import "strings"

// MaxDisplayNameLen caps display names; clients fall back to a derived
// label when a member has no name.
const MaxDisplayNameLen = 24

// SanitizeDisplayName trims and caps a display name. An empty result
// means "no name" and clears any existing entry.
func SanitizeDisplayName(raw string) string {
	name := strings.TrimSpace(raw)
	if runes := []rune(name); len(runes) > MaxDisplayNameLen {
		name = string(runes[:MaxDisplayNameLen])
	}
	return name
}
