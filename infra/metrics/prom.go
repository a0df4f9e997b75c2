package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/virtos/core/metrics"
)

// PromSink exposes simulation runs as Prometheus metrics. Gauges hold the
// outcome of the latest run per architecture and site.
type PromSink struct {
	runs            *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	timeSatisfied   *prometheus.GaugeVec
	powerSatisfied  *prometheus.GaugeVec
	energyNotServed *prometheus.GaugeVec
	totalCost       *prometheus.GaugeVec
	peakGrid        *prometheus.GaugeVec
	saturated       *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	site := []string{"architecture", "site"}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "virtos_simulation_runs_total",
		Help: "Simulation runs by architecture and cache outcome",
	}, []string{"architecture", "cached"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "virtos_simulation_duration_seconds",
		Help:    "Wall time of a simulation run",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"architecture"})); err != nil {
		return nil, err
	}
	if s.timeSatisfied, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "virtos_time_satisfied_percent",
		Help: "Share of timesteps fully served in the latest run",
	}, site)); err != nil {
		return nil, err
	}
	if s.powerSatisfied, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "virtos_power_satisfied_percent",
		Help: "Delivered over demanded energy in the latest run",
	}, site)); err != nil {
		return nil, err
	}
	if s.energyNotServed, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "virtos_energy_not_served_kwh",
		Help: "Unserved energy in the latest run",
	}, site)); err != nil {
		return nil, err
	}
	if s.totalCost, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "virtos_total_cost",
		Help: "Energy plus demand charge of the latest run",
	}, site)); err != nil {
		return nil, err
	}
	if s.peakGrid, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "virtos_peak_grid_import_kw",
		Help: "Peak grid import of the latest run",
	}, site)); err != nil {
		return nil, err
	}
	if s.saturated, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "virtos_constraint_saturated_steps_total",
		Help: "Timesteps in which a constraint was binding",
	}, []string{"architecture", "constraint"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the run counters and latest-run gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	arch := string(ev.Architecture)
	s.runs.WithLabelValues(arch, strconv.FormatBool(ev.Cached)).Inc()
	if ev.Cached {
		return nil
	}
	s.duration.WithLabelValues(arch).Observe(ev.Duration.Seconds())
	s.timeSatisfied.WithLabelValues(arch, ev.SiteName).Set(ev.Metrics.TimeSatisfiedPct)
	s.powerSatisfied.WithLabelValues(arch, ev.SiteName).Set(ev.Metrics.PowerSatisfiedPct)
	s.energyNotServed.WithLabelValues(arch, ev.SiteName).Set(ev.Metrics.EnergyNotServedKWh)
	s.totalCost.WithLabelValues(arch, ev.SiteName).Set(ev.Costs.TotalCost)
	s.peakGrid.WithLabelValues(arch, ev.SiteName).Set(ev.Costs.PeakKW)
	for _, c := range ev.Saturation {
		s.saturated.WithLabelValues(arch, c.Constraint.Key()).Add(float64(c.Steps))
	}
	return nil
}
