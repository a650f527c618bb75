// Package otelx holds small helpers shared by every traced layer.
package otelx

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const nilValue = "<nil>"

var uuidType = reflect.TypeOf(uuid.UUID{})

// RecordSpanError marks span as failed. An empty desc falls back to the
// error text.
func RecordSpanError(span trace.Span, err error, desc string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	if desc == "" {
		desc = err.Error()
	}
	span.SetStatus(codes.Error, desc)
}

// SetSpanAttrs sets attrs on span in key order.
func SetSpanAttrs(span trace.Span, attrs map[string]any) {
	if span == nil || len(attrs) == 0 {
		return
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, len(keys))
	for i, k := range keys {
		kvs[i] = ToAttribute(k, attrs[k])
	}
	span.SetAttributes(kvs...)
}

// ToAttribute picks the attribute type closest to value. Pointers are
// followed, domain identifiers declared over uuid.UUID render as their
// canonical string and anything unknown is formatted with %+v.
func ToAttribute(key string, value any) attribute.KeyValue {
	value, isNil := validation.Indirect(value)
	if isNil {
		return attribute.String(key, nilValue)
	}

	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case []byte:
		return attribute.String(key, string(v))
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int:
		return attribute.IntSlice(key, v)
	case time.Time:
		return attribute.String(key, v.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return attribute.String(key, v.String())
	}

	return reflectAttribute(key, reflect.ValueOf(value))
}

func reflectAttribute(key string, rv reflect.Value) attribute.KeyValue {
	switch {
	case rv.Type().ConvertibleTo(uuidType) && rv.Kind() == reflect.Array:
		return attribute.String(key, rv.Convert(uuidType).Interface().(uuid.UUID).String())
	case rv.Kind() == reflect.String:
		return attribute.String(key, rv.String())
	case rv.CanInt():
		return attribute.Int64(key, rv.Int())
	case rv.CanUint():
		return attribute.Int64(key, int64(rv.Uint()))
	case rv.CanFloat():
		return attribute.Float64(key, rv.Float())
	}
	return attribute.String(key, fmt.Sprintf("%+v", rv.Interface()))
}
