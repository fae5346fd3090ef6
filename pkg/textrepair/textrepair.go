// Package textrepair fixes character-encoding artifacts in outbound
// text: invalid UTF-8 bytes, UTF-8 that was mistakenly decoded as
// Windows-1252 (mojibake), and denormalized combining sequences.
package textrepair

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// mojibakeMarkers are character sequences that almost never appear in
// intentional text but always appear when UTF-8 bytes were decoded as
// a single-byte codepage.
var mojibakeMarkers = []string{"Ã", "Â", "â€", "ï¿"}

// Fix repairs a chunk of outbound text. It is safe on clean input:
// plain text passes through unchanged apart from NFC normalization.
func Fix(s string) string {
	s = strings.ToValidUTF8(s, "�")
	if repaired, ok := fixMojibake(s); ok {
		s = repaired
	}
	return norm.NFC.String(s)
}

// fixMojibake re-encodes the string as Windows-1252 bytes and accepts
// the result only when those bytes form valid UTF-8, i.e. when the
// text really was double-decoded.
func fixMojibake(s string) (string, bool) {
	if !looksMojibake(s) {
		return s, false
	}

	encoded, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s, false
	}
	if !utf8.ValidString(encoded) {
		return s, false
	}
	return encoded, true
}

func looksMojibake(s string) bool {
	for _, marker := range mojibakeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
