// Package otel provides OpenTelemetry instrumentation for desim sessions:
// semantic attribute keys, metrics for applied events and history rewrites,
// an event decorator that traces every application and a metrics Observer.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/desimkit/desim"

// Semantic attribute keys following OpenTelemetry conventions
const (
	AttrSessionID      = attribute.Key("desim.session.id")
	AttrEventType      = attribute.Key("desim.event.type")
	AttrEventIndex     = attribute.Key("desim.event.index")
	AttrCursor         = attribute.Key("desim.cursor")
	AttrTimelineLength = attribute.Key("desim.timeline.length")
	AttrDroppedEvents  = attribute.Key("desim.timeline.dropped")
)

var (
	meter  = otel.Meter(instrumentationName)
	tracer = otel.Tracer(instrumentationName)

	// Event metrics
	EventsApplied, _ = meter.Int64Counter(
		"desim.events.applied",
		metric.WithDescription("Number of events applied to session state"),
		metric.WithUnit("{event}"),
	)

	TransitionsFailed, _ = meter.Int64Counter(
		"desim.transitions.failed",
		metric.WithDescription("Number of event applications rejected by the transition"),
		metric.WithUnit("{event}"),
	)

	ApplyDuration, _ = meter.Float64Histogram(
		"desim.apply.duration",
		metric.WithDescription("Event application duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)

	// Timeline metrics
	Truncations, _ = meter.Int64Counter(
		"desim.timeline.truncations",
		metric.WithDescription("Number of history rewrites"),
		metric.WithUnit("{truncation}"),
	)

	EventsDropped, _ = meter.Int64Counter(
		"desim.timeline.dropped",
		metric.WithDescription("Number of events discarded by history rewrites"),
		metric.WithUnit("{event}"),
	)
)
