// Package logging provides logrus-backed instrumentation for desim sessions:
// an event decorator that logs every application, and an Observer that logs
// committed session changes.
package logging

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/desimkit/desim"
)

// WithEventLogging wraps an event so every application is logged. The entry
// is logged at debug level before execution; failures are logged as errors.
func WithEventLogging[S any](logger *logrus.Entry, event desim.Event[S]) desim.Event[S] {
	return &loggedEvent[S]{logger: logger, next: event}
}

type loggedEvent[S any] struct {
	logger *logrus.Entry
	next   desim.Event[S]
}

func (e *loggedEvent[S]) EventType() string {
	return e.next.EventType()
}

// MarshalJSON delegates to the wrapped event so a decorated timeline still
// exports its payloads.
func (e *loggedEvent[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.next)
}

func (e *loggedEvent[S]) Apply(ctx context.Context, state S, q *desim.Queue[S]) (S, error) {
	e.logger.Debugf("Apply: %s", e.next.EventType())

	next, err := e.next.Apply(ctx, state, q)
	if err != nil {
		e.logger.Errorf("Apply failed: %s: %v", e.next.EventType(), err)
	}

	return next, err
}
