package metrics

import (
	"github.com/kilianp07/virtos/core/factory"
	coremetrics "github.com/kilianp07/virtos/core/metrics"
	inframqtt "github.com/kilianp07/virtos/infra/mqtt"
)

// init registers the built-in sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			inframqtt.Config `json:",squash"`
			Timeseries       bool `json:"timeseries"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.Config.SetDefaults()
		pub, err := inframqtt.NewPahoPublisher(c.Config)
		if err != nil {
			return nil, err
		}
		return NewMQTTSink(pub, c.Config, c.Timeseries), nil
	})

	_ = coremetrics.RegisterMetricsSink("nats", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c NATSConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewNATSSink(c)
	})
}
