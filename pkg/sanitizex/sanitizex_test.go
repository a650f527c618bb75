package sanitizex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSingleLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input, want string
	}{
		{"empty", "", ""},
		{"trims", "  Go for beginners  ", "Go for beginners"},
		{"collapses whitespace", "Go \n\t  basics", "Go basics"},
		{"control chars become space", "a\x00\x01b", "a b"},
		{"delete char", "a\u007fb", "a b"},
		{"nfc", "café", "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanSingleLine(tt.input))
		})
	}
}

func TestCleanMultiline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input, want string
	}{
		{"empty", "", ""},
		{"keeps newlines", "line one  \n  line two", "line one\nline two"},
		{"drops control chars", "a\x00b\nc", "ab\nc"},
		{"crlf", "one\r\ntwo", "one\ntwo"},
		{"keeps inner tabs", "a\tb", "a\tb"},
		{"shortens blank runs", "intro\n\n\n\nbody", "intro\n\nbody"},
		{"drops outer blank lines", "\n\n  intro \n\n", "intro"},
		{"only whitespace", " \n \t\n", ""},
		{"nfc", "cafe\u0301\n", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanMultiline(tt.input))
		})
	}
}

func TestCleanEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "john.doe@example.com", CleanEmail("  John.Doe@Example.COM \n"))
	assert.Equal(t, "", CleanEmail("   "))
}
