package otel

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/desimkit/desim"
)

// WithTracing wraps an event so every application runs inside a span and
// records its duration. Failures are recorded on the span and counted.
func WithTracing[S any](event desim.Event[S]) desim.Event[S] {
	return &tracedEvent[S]{next: event}
}

type tracedEvent[S any] struct {
	next desim.Event[S]
}

func (e *tracedEvent[S]) EventType() string {
	return e.next.EventType()
}

// MarshalJSON delegates to the wrapped event so a decorated timeline still
// exports its payloads.
func (e *tracedEvent[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.next)
}

func (e *tracedEvent[S]) Apply(ctx context.Context, state S, q *desim.Queue[S]) (S, error) {
	ctx, span := tracer.Start(ctx, "desim.event.apply",
		trace.WithAttributes(AttrEventType.String(e.next.EventType())),
	)
	defer span.End()

	start := time.Now()
	next, err := e.next.Apply(ctx, state, q)
	ApplyDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(AttrEventType.String(e.next.EventType())),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		TransitionsFailed.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(e.next.EventType())))
	}

	return next, err
}
