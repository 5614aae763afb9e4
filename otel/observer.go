package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/desimkit/desim"
)

// Observer emits metrics for committed session changes. Give it the session
// ID so concurrent sessions remain distinguishable.
type Observer[S any] struct {
	session attribute.KeyValue
}

func NewObserver[S any](sessionID string) *Observer[S] {
	return &Observer[S]{session: AttrSessionID.String(sessionID)}
}

func (o *Observer[S]) OnApplied(ctx context.Context, index int, entry desim.Entry[S], state S) {
	EventsApplied.Add(ctx, 1, metric.WithAttributes(
		o.session,
		AttrEventType.String(entry.Event.EventType()),
	))
}

func (o *Observer[S]) OnTruncated(index, dropped int) {
	ctx := context.Background()
	Truncations.Add(ctx, 1, metric.WithAttributes(o.session))
	EventsDropped.Add(ctx, int64(dropped), metric.WithAttributes(o.session))
}
