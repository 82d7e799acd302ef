package domain

import "strings"

type RoomName string

const (
	// MaxRoomNameLen caps the sanitized room name length.
	MaxRoomNameLen = 12

	// DefaultRoom is used when the requested room name sanitizes to nothing.
	DefaultRoom RoomName = "LOBBY"
)

// SanitizeRoomName folds a raw room name to the canonical lookup key:
// uppercase, [A-Z0-9] only, capped at MaxRoomNameLen. Clients apply the
// same rule, so both sides agree on room identity.
func SanitizeRoomName(raw string) RoomName {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == MaxRoomNameLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return DefaultRoom
	}
	return RoomName(b.String())
}

func (n RoomName) String() string { return string(n) }
