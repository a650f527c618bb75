package otelx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type namedID uuid.UUID

type level string

func TestToAttribute(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	var nilStr *string
	s := "ptr"

	tests := []struct {
		name  string
		value any
		want  attribute.Value
	}{
		{"string", "x", attribute.StringValue("x")},
		{"bool", true, attribute.BoolValue(true)},
		{"int", 7, attribute.IntValue(7)},
		{"int64", int64(8), attribute.Int64Value(8)},
		{"float", 1.5, attribute.Float64Value(1.5)},
		{"strings", []string{"a", "b"}, attribute.StringSliceValue([]string{"a", "b"})},
		{"time", ts, attribute.StringValue("2025-01-02T03:04:05Z")},
		{"duration", time.Minute, attribute.StringValue("1m0s")},
		{"uuid", id, attribute.StringValue(id.String())},
		{"named uuid", namedID(id), attribute.StringValue(id.String())},
		{"named string", level("ADMIN"), attribute.StringValue("ADMIN")},
		{"uint8", uint8(3), attribute.Int64Value(3)},
		{"nil pointer", nilStr, attribute.StringValue("<nil>")},
		{"pointer", &s, attribute.StringValue("ptr")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kv := ToAttribute("k", tt.value)
			assert.Equal(t, attribute.Key("k"), kv.Key)
			assert.Equal(t, tt.want, kv.Value)
		})
	}
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func TestRecordSpanError(t *testing.T) {
	t.Parallel()

	sr, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordSpanError(span, errors.New("boom"), "")
	RecordSpanError(span, nil, "ignored")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestSetSpanAttrs(t *testing.T) {
	t.Parallel()

	sr, tp := newRecorder()
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	SetSpanAttrs(span, map[string]any{"request.email": "a@b.com", "request.price": int64(10)})
	SetSpanAttrs(span, nil)
	span.End()

	attrs := sr.Ended()[0].Attributes()
	assert.Contains(t, attrs, attribute.String("request.email", "a@b.com"))
	assert.Contains(t, attrs, attribute.Int64("request.price", 10))
}

type carrier struct{ got context.Context }

func (c *carrier) Propagate(ctx context.Context) { c.got = ctx }

func TestPropagateAll(t *testing.T) {
	t.Parallel()

	a, b := &carrier{}, &carrier{}
	ctx := context.WithValue(context.Background(), struct{}{}, "v")
	PropagateAll[any](ctx, a, "not a propagator", b)

	assert.Equal(t, ctx, a.got)
	assert.Equal(t, ctx, b.got)
}
