package watermillx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestSlogAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: levelTrace}))
	adapter := NewSlogAdapter(base, slog.LevelInfo).With(watermill.LogFields{"topic": "events_user"})

	adapter.Trace("trace dropped", nil)
	adapter.Debug("debug dropped", nil)
	adapter.Info("info kept", watermill.LogFields{"offset": 3})
	adapter.Error("error kept", errors.New("boom"), nil)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "info kept")
	assert.Contains(t, out, "offset=3")
	assert.Contains(t, out, "topic=events_user")
	assert.Contains(t, out, "error=boom")
}
