// Package factory instantiates pluggable modules from configuration. A module
// is named by a type string and configured by a raw map that the factory
// decodes into its own settings struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct {
//	        URL     string        `json:"url"`
//	        Timeout time.Duration `json:"timeout"`
//	    }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL, c.Timeout), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086", "timeout": "2s"}})
package factory
