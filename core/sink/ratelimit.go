package sink

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kilianp07/lrinject/core/model"
)

// RateLimitedSink paces emissions to a maximum rate without reordering them.
type RateLimitedSink struct {
	next Sink
	lim  *rate.Limiter
}

// NewRateLimitedSink wraps next so that at most perSecond events are emitted
// per second, with bursts of up to burst events.
func NewRateLimitedSink(next Sink, perSecond float64, burst int) *RateLimitedSink {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSink{next: next, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Emit waits for a token then forwards the event.
func (s *RateLimitedSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	if err := s.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return s.next.Emit(ctx, ch, values)
}

// Close closes the wrapped sink.
func (s *RateLimitedSink) Close() error { return s.next.Close() }
