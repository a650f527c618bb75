// Package sanitizex normalizes free text from requests before it is
// validated or stored.
package sanitizex

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxBlankLines is the longest run of empty lines kept in multiline text.
const maxBlankLines = 1

// CleanSingleLine NFC-normalizes s, turns control characters into spaces,
// trims it and collapses whitespace runs to a single ASCII space. Used for
// names, titles and tokens.
func CleanSingleLine(s string) string {
	if s == "" {
		return ""
	}
	s = mapControl(norm.NFC.String(s), func(r rune) rune { return ' ' })

	var (
		b     strings.Builder
		space bool
	)
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return b.String()
}

// CleanMultiline is the counterpart for course descriptions. Newlines and
// tabs survive, CRLF becomes LF, each line is trimmed, leading and trailing
// empty lines are dropped and runs of empty lines are shortened.
func CleanMultiline(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(norm.NFC.String(s), "\r\n", "\n")
	s = mapControl(s, func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		return -1
	})

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank++
			if blank > maxBlankLines || len(out) == 0 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// CleanEmail is CleanSingleLine plus lowercasing. Emails are stored and
// compared in this form.
func CleanEmail(s string) string {
	return strings.ToLower(CleanSingleLine(s))
}

// mapControl replaces control characters and DEL using repl; other runes
// are kept. repl returning -1 drops the rune.
func mapControl(s string, repl func(rune) rune) string {
	return strings.Map(func(r rune) rune {
		if r == '\u007f' || unicode.IsControl(r) {
			return repl(r)
		}
		return r
	}, s)
}
