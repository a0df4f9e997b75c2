package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/virtos/core/metrics"
	"github.com/kilianp07/virtos/infra/logger"
)

// InfluxConfig configures an InfluxSink.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
	// Timeseries enables one point per timestep in addition to the run summary.
	Timeseries bool `json:"timeseries"`
}

// InfluxSink writes run summaries and per-timestep series to InfluxDB.
type InfluxSink struct {
	client     influxdb2.Client
	writeAPI   api.WriteAPIBlocking
	timeout    time.Duration
	timeseries bool
	log        logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A trailing
// /api/v2/write on the URL is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:     client,
		writeAPI:   client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:    cfg.Timeout,
		timeseries: cfg.Timeseries,
		log:        logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func runPoint(ev coremetrics.RunEvent) *write.Point {
	return write.NewPointWithMeasurement("simulation_run").
		AddTag("architecture", string(ev.Architecture)).
		AddTag("site", ev.SiteName).
		AddTag("fingerprint", ev.Fingerprint).
		AddTag("registry_hash", ev.RegistryHash).
		AddTag("cached", strconv.FormatBool(ev.Cached)).
		AddField("run_id", ev.RunID).
		AddField("steps", ev.Steps).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		AddField("time_satisfied_pct", round3(ev.Metrics.TimeSatisfiedPct)).
		AddField("power_satisfied_pct", round3(ev.Metrics.PowerSatisfiedPct)).
		AddField("energy_not_served_kwh", round3(ev.Metrics.EnergyNotServedKWh)).
		AddField("energy_kwh", round3(ev.Costs.EnergyKWh)).
		AddField("energy_cost", round3(ev.Costs.EnergyCost)).
		AddField("peak_kw", round3(ev.Costs.PeakKW)).
		AddField("demand_cost", round3(ev.Costs.DemandCost)).
		AddField("total_cost", round3(ev.Costs.TotalCost)).
		AddField("binding", strings.Join(ev.Binding, ";")).
		SetTime(ev.Time)
}

// RecordRun writes the run summary point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(ev))
}

// RecordTimeseries writes one simulation_step point per timestep in a single batch.
func (s *InfluxSink) RecordTimeseries(ev coremetrics.TimeseriesEvent) error {
	if !s.timeseries {
		return nil
	}
	ts := ev.Series
	points := make([]*write.Point, 0, len(ts.DemandKW))
	for i := range ts.DemandKW {
		points = append(points, write.NewPointWithMeasurement("simulation_step").
			AddTag("architecture", string(ev.Architecture)).
			AddTag("site", ev.SiteName).
			AddTag("run_id", ev.RunID).
			AddField("utilisation", round3(at(ts.Utilisation, i))).
			AddField("demand_kw", round3(ts.DemandKW[i])).
			AddField("delivered_kw", round3(at(ts.DeliveredKW, i))).
			AddField("grid_import_kw", round3(at(ts.GridImportKW, i))).
			AddField("shared_draw_kw", round3(at(ts.SharedDrawKW, i))).
			AddField("battery_discharge_kw", round3(at(ts.BatteryDischargeKW, i))).
			AddField("battery_charge_kw", round3(at(ts.BatteryChargeKW, i))).
			AddField("soc_kwh", round3(at(ts.SoCKWh, i))).
			AddField("unserved_kwh", round3(at(ts.UnservedKWh, i))).
			SetTime(ev.StepTime(i)))
	}
	if len(points) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
