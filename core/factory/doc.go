// Package factory provides a small generic registry used to instantiate
// sinks from configuration. Modules are defined by a type string and a map of
// raw settings. Factories decode the settings into typed structs and return
// the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[sink.Sink]()
//	reg.Register("jsonl", func(conf map[string]any) (sink.Sink, error) {
//	    var c JSONLConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewJSONLSink(c)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "out.jsonl"}})
package factory
