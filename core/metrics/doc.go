// Package metrics defines the sinks that observe simulation runs. Every sink
// records a RunEvent summary; sinks that also implement TimeseriesRecorder
// receive the per-timestep series. Sinks are built from configuration through
// NewMetricsSink, which fans out to a MultiSink when several are configured.
package metrics
