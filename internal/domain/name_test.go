package domain

import (
	"strings"
	"testing"
)

func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "Ada", want: "Ada"},
		{name: "trimmed", raw: "  Ada  ", want: "Ada"},
		{name: "empty", raw: "", want: ""},
		{name: "whitespace only", raw: "   ", want: ""},
		{name: "capped", raw: strings.Repeat("x", 40), want: strings.Repeat("x", MaxDisplayNameLen)},
		{name: "multibyte capped by runes", raw: strings.Repeat("ñ", 30), want: strings.Repeat("ñ", MaxDisplayNameLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDisplayName(tt.raw); got != tt.want {
				t.Errorf("SanitizeDisplayName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
