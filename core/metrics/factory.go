package metrics

import "github.com/kilianp07/socsim/core/factory"

var sinkRegistry = factory.NewRegistry[RunSink]()

func init() {
	_ = RegisterRunSink("nop", func(map[string]any) (RunSink, error) { return NopSink{}, nil })
}

// RegisterRunSink adds a sink factory identified by name.
func RegisterRunSink(name string, f factory.Factory[RunSink]) error {
	return sinkRegistry.Register(name, f)
}

// RegisteredSinks lists the sink types that can be configured.
func RegisteredSinks() []string { return sinkRegistry.Names() }

// NewRunSink builds the sinks described by cfgs. No configuration yields a
// NopSink and a single entry is returned unwrapped.
func NewRunSink(cfgs []factory.ModuleConfig) (RunSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]RunSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			_ = NewMultiSink(sinks...).Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return NewMultiSink(sinks...), nil
}
