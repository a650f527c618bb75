package otelx

import "context"

// TracePropagator is implemented by events that carry the trace context of
// the request that raised them.
type TracePropagator interface {
	Propagate(ctx context.Context)
}

// PropagateAll stamps the trace context of ctx onto every value that can hold it.
func PropagateAll[T any](ctx context.Context, values ...T) {
	for _, v := range values {
		if p, ok := any(v).(TracePropagator); ok {
			p.Propagate(ctx)
		}
	}
}
