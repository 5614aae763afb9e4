package logging

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/desimkit/desim"
)

// Observer logs committed session changes. Applications are logged at debug
// level, history rewrites at info, since dropped events are the change a
// host most likely wants a trace of.
type Observer[S any] struct {
	logger *logrus.Entry
}

func NewObserver[S any](logger *logrus.Entry) *Observer[S] {
	return &Observer[S]{logger: logger}
}

func (o *Observer[S]) OnApplied(ctx context.Context, index int, entry desim.Entry[S], state S) {
	o.logger.WithFields(logrus.Fields{
		"index": index,
		"event": entry.Event.EventType(),
	}).Debug("event applied")
}

func (o *Observer[S]) OnTruncated(index, dropped int) {
	o.logger.WithFields(logrus.Fields{
		"index":   index,
		"dropped": dropped,
	}).Info("timeline truncated")
}
