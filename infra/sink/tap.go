package sink

import (
	"context"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/internal/eventbus"
)

// TapSink republishes every event on an in-process bus so observers can
// follow the stream without slowing it down.
type TapSink struct {
	bus *eventbus.Bus[coresink.Emission]
}

// NewTapSink creates a tap whose subscribers buffer up to buffer emissions.
func NewTapSink(buffer int) *TapSink {
	return &TapSink{bus: eventbus.New[coresink.Emission](buffer)}
}

// Emit publishes the event to current subscribers.
func (t *TapSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	em, err := coresink.NewEmission(ctx, ch, values)
	if err != nil {
		return err
	}
	t.bus.Publish(em)
	return nil
}

// Subscribe returns a channel of emissions, closed when the tap closes.
func (t *TapSink) Subscribe() <-chan coresink.Emission { return t.bus.Subscribe() }

// Unsubscribe detaches a subscriber.
func (t *TapSink) Unsubscribe(ch <-chan coresink.Emission) { t.bus.Unsubscribe(ch) }

// Dropped reports deliveries missed by slow subscribers.
func (t *TapSink) Dropped() uint64 { return t.bus.Dropped() }

// Close closes every subscriber channel.
func (t *TapSink) Close() error {
	t.bus.Close()
	return nil
}
