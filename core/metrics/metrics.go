package metrics

import (
	"time"

	"github.com/kilianp07/virtos/core/model"
)

// RunEvent summarises one simulation run.
type RunEvent struct {
	RunID        string                  `json:"run_id"`
	Time         time.Time               `json:"time"`
	Architecture model.Architecture      `json:"architecture"`
	SiteName     string                  `json:"site_name"`
	Fingerprint  string                  `json:"fingerprint"`
	RegistryHash string                  `json:"registry_hash"`
	Steps        int                     `json:"steps"`
	TimestepH    float64                 `json:"timestep_h"`
	Duration     time.Duration           `json:"duration_ns"`
	Cached       bool                    `json:"cached"`
	Metrics      model.Metrics           `json:"metrics"`
	Costs        model.Costs             `json:"costs"`
	Binding      []string                `json:"binding_constraints,omitempty"`
	Saturation   []model.ConstraintCount `json:"saturation,omitempty"`
}

// NewRunEvent builds the summary of res.
func NewRunEvent(res model.SimulationResult, runID string, at time.Time, took time.Duration, cached bool) RunEvent {
	return RunEvent{
		RunID:        runID,
		Time:         at,
		Architecture: res.Architecture,
		SiteName:     res.SiteName,
		Fingerprint:  res.Fingerprint,
		RegistryHash: res.RegistryHash,
		Steps:        res.Steps,
		TimestepH:    res.TimestepH,
		Duration:     took,
		Cached:       cached,
		Metrics:      res.Metrics,
		Costs:        res.Costs,
		Binding:      res.Binding,
		Saturation:   res.Saturation,
	}
}

// MetricsSink records run summaries.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// TimeseriesEvent carries the per-timestep series of a run. Step i starts
// at Start + i*TimestepH.
type TimeseriesEvent struct {
	RunID        string
	Start        time.Time
	Architecture model.Architecture
	SiteName     string
	TimestepH    float64
	Series       model.Timeseries
}

// StepTime returns the start of step i.
func (e TimeseriesEvent) StepTime(i int) time.Time {
	return e.Start.Add(time.Duration(float64(i) * e.TimestepH * float64(time.Hour)))
}

// TimeseriesRecorder is implemented by sinks able to store per-timestep series.
type TimeseriesRecorder interface {
	RecordTimeseries(ev TimeseriesEvent) error
}

// NewTimeseriesEvent wraps the series of res.
func NewTimeseriesEvent(res model.SimulationResult, runID string, start time.Time) TimeseriesEvent {
	return TimeseriesEvent{
		RunID:        runID,
		Start:        start,
		Architecture: res.Architecture,
		SiteName:     res.SiteName,
		TimestepH:    res.TimestepH,
		Series:       res.Timeseries,
	}
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error               { return nil }
func (NopSink) RecordTimeseries(TimeseriesEvent) error { return nil }
