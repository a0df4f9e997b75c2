package metrics

import (
	"errors"
	"io"
)

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink over sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards ev to every sink. All sinks are tried; their errors are joined.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTimeseries forwards ev to the sinks implementing TimeseriesRecorder.
func (m *MultiSink) RecordTimeseries(ev TimeseriesEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TimeseriesRecorder); ok {
			if err := rec.RecordTimeseries(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks implementing io.Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
