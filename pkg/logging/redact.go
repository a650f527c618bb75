package logging

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// RedactEmail keeps the first two runes of the local part and the domain.
// Empty, malformed or very short addresses are returned unchanged.
func RedactEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return s
	}

	local, domain := s[:at], s[at+1:]
	if utf8.RuneCountInString(local) < 3 {
		return s
	}

	offset := 0
	for count := 0; count < 2 && offset < len(local); count++ {
		_, size := utf8.DecodeRuneInString(local[offset:])
		offset += size
	}

	return local[:offset] + "****@" + domain
}

// RedactToken keeps the last four characters of a bearer or verification token.
func RedactToken(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return "****" + s[len(s)-4:]
}

// Email is a slog attribute carrying a redacted address.
func Email(email string) slog.Attr {
	return slog.String("email", RedactEmail(email))
}
