package env

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		valid bool
		level slog.Level
		dev   bool
	}{
		{Test, true, slog.LevelDebug, true},
		{Local, true, slog.LevelDebug, true},
		{Dev, true, slog.LevelDebug, true},
		{Prod, true, slog.LevelInfo, false},
		{Mode("staging"), false, slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.Validate())
			assert.Equal(t, tt.level, tt.mode.SlogLevel())
			assert.Equal(t, tt.dev, tt.mode.IsDevelopment())
		})
	}
}

func TestSetMode_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { SetMode(Mode("nope")) })
}

func TestLookups(t *testing.T) {
	t.Setenv("SC_STR", "value")
	t.Setenv("SC_DUR", "90m")
	t.Setenv("SC_BAD_DUR", "ninety")
	t.Setenv("SC_INT", "42")
	t.Setenv("SC_LIST", " a, ,b ,c")

	assert.Equal(t, "value", GetOrDefault("SC_STR", "x"))
	assert.Equal(t, "x", GetOrDefault("SC_MISSING", "x"))

	d, err := DurationOrDefault("SC_DUR", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = DurationOrDefault("SC_MISSING", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	_, err = DurationOrDefault("SC_BAD_DUR", time.Minute)
	assert.Error(t, err)

	n, err := IntOrDefault("SC_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	assert.Equal(t, []string{"a", "b", "c"}, List("SC_LIST", nil))
	assert.Equal(t, []string{"d"}, List("SC_MISSING", []string{"d"}))
}
