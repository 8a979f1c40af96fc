package events

import (
	"context"
	"errors"
	"log/slog"

	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/domain/moderation"
	"modqueue/internal/infrastructure/metrics"
	"modqueue/internal/ports"
)

// Sink is a named publisher so failures can be attributed.
type Sink struct {
	Name      string
	Publisher ports.EventPublisher
}

// FanoutPublisher delivers to every sink and joins their errors.
type FanoutPublisher struct {
	sinks []Sink
}

var _ ports.EventPublisher = (*FanoutPublisher)(nil)

func NewFanoutPublisher(sinks ...Sink) *FanoutPublisher {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Publisher != nil {
			kept = append(kept, s)
		}
	}
	return &FanoutPublisher{sinks: kept}
}

func (f *FanoutPublisher) Publish(ctx context.Context, event moderation.TransitionEvent) error {
	var joined []error
	for _, s := range f.sinks {
		if err := s.Publisher.Publish(ctx, event); err != nil {
			metrics.ObservePublishFailure(s.Name)
			joined = append(joined, &SinkError{Sink: s.Name, Err: err})
		}
	}
	return errors.Join(joined...)
}

type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// FailedSinks lists the sink names found in a FanoutPublisher error.
func FailedSinks(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	var walk func(error)
	walk = func(e error) {
		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner)
			}
			return
		}
		var se *SinkError
		if errors.As(e, &se) {
			out = append(out, se.Sink)
		}
	}
	walk(err)
	return out
}

// LogPublisher writes each event to the structured log.
type LogPublisher struct{}

var _ ports.EventPublisher = LogPublisher{}

func (LogPublisher) Publish(ctx context.Context, event moderation.TransitionEvent) error {
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "events.log")),
		"transition committed",
		slog.String("record_id", event.RecordID),
		slog.String("action", string(event.Action)),
		slog.String("from", string(event.FromStatus)),
		slog.String("to", string(event.ToStatus)),
		slog.String("actor", event.ActorID),
		slog.Uint64("entry_id", event.EntryID),
	)
	return nil
}
