package mqtt

import (
	"github.com/kilianp07/socsim/core/factory"
	coremetrics "github.com/kilianp07/socsim/core/metrics"
)

func init() {
	_ = coremetrics.RegisterRunSink("mqtt", newSinkFromConf)
}

func newSinkFromConf(conf map[string]any) (coremetrics.RunSink, error) {
	var c Config
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewPublisher(c)
}
