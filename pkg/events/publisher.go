package events

import (
	"context"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
)

// Publisher delivers events to a sink. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Publisher = discard{}

// Fanout publishes to every sink in order. A failing sink is logged and
// skipped so one broken mirror never blocks the others.
type Fanout struct {
	sinks  []Publisher
	logger logger.ILogger
}

func NewFanout(logger logger.ILogger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			f.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}

// Emit publishes and discards the error; callers that emit from the middle of
// a state transition use it so a sink can never fail the transition.
func Emit(ctx context.Context, p Publisher, eventType string, data map[string]interface{}) {
	if p == nil {
		return
	}
	_ = p.Publish(ctx, New(eventType, data))
}
