package sink

import (
	"context"
	"errors"

	"github.com/kilianp07/lrinject/core/model"
)

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// Emit forwards the event to all sinks in order, returning the first error
// encountered.
func (m *MultiSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	for _, s := range m.Sinks {
		if err := s.Emit(ctx, ch, values); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
