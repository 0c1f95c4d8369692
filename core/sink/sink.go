// Package sink defines where emitted events go. A Sink receives the channel
// and the ordered field values of every event; adapters in infra/sink encode
// them for a transport or a store.
package sink

import (
	"context"
	"time"

	"github.com/kilianp07/lrinject/core/model"
)

// Sink accepts events for a named channel.
type Sink interface {
	Emit(ctx context.Context, ch model.Channel, values []any) error
	Close() error
}

// Emission is the serialized form of one emitted event.
type Emission struct {
	PassID  string         `json:"pass_id,omitempty"`
	Channel string         `json:"channel"`
	Fields  map[string]any `json:"fields"`
	Values  []any          `json:"values"`
	At      time.Time      `json:"emitted_at"`
}

// NewEmission binds values to the channel schema and stamps the pass id
// carried by ctx.
func NewEmission(ctx context.Context, ch model.Channel, values []any) (Emission, error) {
	fields, err := ch.Bind(values)
	if err != nil {
		return Emission{}, err
	}
	return Emission{
		PassID:  PassID(ctx),
		Channel: ch.Name,
		Fields:  fields,
		Values:  values,
		At:      time.Now().UTC(),
	}, nil
}

type passKey struct{}

// WithPassID tags ctx with the id of the current pass over the data file.
func WithPassID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, passKey{}, id)
}

// PassID returns the pass id carried by ctx, if any.
func PassID(ctx context.Context) string {
	id, _ := ctx.Value(passKey{}).(string)
	return id
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, model.Channel, []any) error { return nil }
func (NopSink) Close() error                                    { return nil }
