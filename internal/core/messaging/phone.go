package messaging

import (
	"strings"
	"unicode"
)

// NormalizePhone strips a chat sender identity down to digits. Transport
// prefixes such as "whatsapp:" and formatting characters are dropped, and a
// bare 10-digit national number gets countryCode prepended. Identities with no
// digits are returned trimmed and unchanged.
func NormalizePhone(raw, countryCode string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return strings.TrimSpace(raw)
	}

	if len(digits) == 10 && countryCode != "" {
		digits = strings.TrimPrefix(countryCode, "+") + digits
	}

	return digits
}
