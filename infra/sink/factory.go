package sink

import (
	"github.com/kilianp07/lrinject/core/factory"
	coresink "github.com/kilianp07/lrinject/core/sink"
)

// init registers the built-in sinks.
func init() {
	_ = coresink.RegisterSink("nop", func(map[string]any) (coresink.Sink, error) {
		return coresink.NopSink{}, nil
	})

	_ = coresink.RegisterSink("mqtt", func(conf map[string]any) (coresink.Sink, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTSink(c)
	})

	_ = coresink.RegisterSink("nats", func(conf map[string]any) (coresink.Sink, error) {
		var c NATSConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewNATSSink(c)
	})

	_ = coresink.RegisterSink("jsonl", func(conf map[string]any) (coresink.Sink, error) {
		var c JSONLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLSink(c)
	})

	_ = coresink.RegisterSink("sqlite", func(conf map[string]any) (coresink.Sink, error) {
		var c SQLiteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteSink(c)
	})

	_ = coresink.RegisterSink("influx", func(conf map[string]any) (coresink.Sink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
