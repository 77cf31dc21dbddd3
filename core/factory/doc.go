// Package factory is a small generic registry that builds modules, such as
// run sinks, from configuration. A module is named by a type string and
// carries a map of raw settings that its factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[metrics.RunSink]()
//	_ = reg.Register("stdout", func(conf map[string]any) (metrics.RunSink, error) {
//	    var c struct{ Pretty bool `json:"pretty"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newStdoutSink(c.Pretty), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "stdout", Conf: map[string]any{"pretty": true}})
package factory
