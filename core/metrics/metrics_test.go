package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/virtos/core/factory"
	"github.com/kilianp07/virtos/core/model"
)

type recordSink struct {
	runs   int
	series int
	err    error
	closed bool
}

func (r *recordSink) RecordRun(RunEvent) error { r.runs++; return r.err }

type seriesSink struct{ recordSink }

func (s *seriesSink) RecordTimeseries(TimeseriesEvent) error { s.series++; return s.err }
func (s *seriesSink) Close() error                           { s.closed = true; return nil }

func TestMultiSinkForwards(t *testing.T) {
	plain := &recordSink{}
	withSeries := &seriesSink{}
	m := NewMultiSink(plain, withSeries)

	require.NoError(t, m.RecordRun(RunEvent{}))
	require.NoError(t, m.RecordTimeseries(TimeseriesEvent{}))
	require.NoError(t, m.Close())

	assert.Equal(t, 1, plain.runs)
	assert.Equal(t, 1, withSeries.runs)
	assert.Equal(t, 1, withSeries.series)
	assert.True(t, withSeries.closed)
}

func TestMultiSinkTriesEverySink(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordSink{err: boom}
	ok := &recordSink{}
	err := NewMultiSink(failing, ok).RecordRun(RunEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.runs, "a failing sink must not stop the others")
}

func TestNewMetricsSink(t *testing.T) {
	require.NoError(t, RegisterMetricsSink("test-record", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	}))
	assert.Contains(t, SinkTypes(), "test-record")

	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}})
	require.NoError(t, err)
	assert.IsType(t, &recordSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "test-record"}})
	require.NoError(t, err)
	m, isMulti := s.(*MultiSink)
	require.True(t, isMulti)
	assert.Len(t, m.Sinks, 2)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "missing"}})
	assert.Error(t, err)
}

func TestNewRunEvent(t *testing.T) {
	res := model.SimulationResult{
		Architecture: model.ArchGridOnly,
		SiteName:     "depot",
		Steps:        96,
		TimestepH:    0.25,
		Fingerprint:  "f",
		RegistryHash: "h",
		Metrics:      model.Metrics{TimeSatisfiedPct: 90},
		Costs:        model.Costs{TotalCost: 12.5},
		Binding:      []string{"grid"},
	}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ev := NewRunEvent(res, "run-1", at, time.Millisecond, true)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, model.ArchGridOnly, ev.Architecture)
	assert.Equal(t, 96, ev.Steps)
	assert.Equal(t, 12.5, ev.Costs.TotalCost)
	assert.True(t, ev.Cached)

	ts := NewTimeseriesEvent(res, "run-1", at)
	assert.Equal(t, at.Add(45*time.Minute), ts.StepTime(3))
}
