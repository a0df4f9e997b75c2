package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/library"
	coremetrics "github.com/kilianp07/virtos/core/metrics"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/runlog"
)

type recordingSink struct {
	mu     sync.Mutex
	runs   []coremetrics.RunEvent
	series int
	err    error
}

func (r *recordingSink) RecordRun(ev coremetrics.RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, ev)
	return r.err
}

func (r *recordingSink) RecordTimeseries(coremetrics.TimeseriesEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series++
	return r.err
}

type memoryRunLog struct {
	mu      sync.Mutex
	records []runlog.RunRecord
	closed  bool
}

func (m *memoryRunLog) Append(_ context.Context, r runlog.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memoryRunLog) Query(_ context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []runlog.RunRecord
	for _, r := range m.records {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRunLog) Close() error { m.closed = true; return nil }

func testSite() model.SiteSpec {
	curve := make([]float64, 8)
	for i := range curve {
		curve[i] = 1
	}
	return model.SiteSpec{
		Name:             "depot",
		Demand:           model.DemandProfile{Utilisation: curve, TimestepMinutes: 15, HorizonHours: 2},
		GridConnectionKW: 300,
		SharedUpstreamKW: 150,
		Segments: []model.SegmentSpec{
			{ID: "east", PCSSKU: "PCS_500", BatterySKU: "BATT_500_1000", ModuleCount: 2, CableSKU: "CABLE_375A"},
		},
		ACBattery: model.ACBatterySpec{BatterySKU: "BATT_500_1000", InverterKW: 100},
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *recordingSink, *memoryRunLog) {
	t.Helper()
	reg, err := library.Load(context.Background(), library.NewMemoryStore())
	require.NoError(t, err)
	sink := &recordingSink{}
	runs := &memoryRunLog{}
	opts = append([]Option{WithSink(sink), WithRunLog(runs)}, opts...)
	return NewService(reg, opts...), sink, runs
}

func TestSimulateCachesByFingerprintAndHash(t *testing.T) {
	svc, sink, runs := newTestService(t)
	ctx := context.Background()

	first, err := svc.Simulate(ctx, testSite())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, model.ArchVirtos, first.Result.Architecture, "empty architecture selects virtos")
	assert.Equal(t, svc.Library().Hash(), first.Result.RegistryHash)
	assert.Len(t, first.Result.Fingerprint, 16)

	second, err := svc.Simulate(ctx, testSite())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Result.Costs, second.Result.Costs)

	require.Len(t, runs.records, 2)
	assert.True(t, runs.records[1].Cached)
	require.Len(t, sink.runs, 2)
	assert.Equal(t, 1, sink.series, "series are exported for fresh runs only")

	records := append(svc.Library().Records(""), library.ComponentRecord{
		ComponentID: "PCS_750", ComponentType: library.TypePCS, Name: "PCS 750 kW",
		Parameters: map[string]float64{library.ParamPowerKW: 750}, Version: 1,
		Source: "user_input", EffectiveDate: "2026-02-01",
	})
	_, err = svc.Library().Upsert(ctx, records, "add PCS_750")
	require.NoError(t, err)

	third, err := svc.Simulate(ctx, testSite())
	require.NoError(t, err)
	assert.False(t, third.Cached, "a library change invalidates cached results")
	assert.NotEqual(t, first.Result.RegistryHash, third.Result.RegistryHash)
}

func TestSimulateUnknownArchitecture(t *testing.T) {
	svc, sink, _ := newTestService(t)
	site := testSite()
	site.Architecture = "hydrogen"
	_, err := svc.Simulate(context.Background(), site)
	assert.ErrorIs(t, err, model.ErrUnknownArchitecture)
	assert.Empty(t, sink.runs)
}

func TestSimulateCanceledContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Simulate(ctx, testSite())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkFailureDoesNotFailSimulation(t *testing.T) {
	svc, sink, runs := newTestService(t)
	sink.err = errors.New("influx down")
	out, err := svc.Simulate(context.Background(), testSite())
	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Len(t, runs.records, 1)
}

func TestCompareAllArchitectures(t *testing.T) {
	svc, sink, _ := newTestService(t)
	site := testSite()
	site.Architecture = model.ArchGridOnly

	cmp, err := svc.Compare(context.Background(), site)
	require.NoError(t, err)
	require.Len(t, cmp.Outcomes, 3)
	for i, a := range model.Architectures() {
		assert.Equal(t, a, cmp.Outcomes[i].Result.Architecture)
	}
	require.Len(t, cmp.Deltas, 2)
	for _, d := range cmp.Deltas {
		assert.Equal(t, model.ArchVirtos, d.A)
	}
	assert.Equal(t, model.ArchGridOnly, cmp.Deltas[0].B)
	assert.Equal(t, model.ArchACCoupled, cmp.Deltas[1].B)

	v, ok := cmp.Outcome(model.ArchVirtos)
	require.True(t, ok)
	g, ok := cmp.Outcome(model.ArchGridOnly)
	require.True(t, ok)
	assert.InDelta(t, v.Result.Costs.TotalCost-g.Result.Costs.TotalCost, cmp.Deltas[0].TotalCost, 1e-9)
	assert.Len(t, sink.runs, 3)
}

func TestExplain(t *testing.T) {
	svc, _, _ := newTestService(t)
	site := testSite()
	out, err := svc.Simulate(context.Background(), site)
	require.NoError(t, err)

	e := Explain(site, out.Result)
	assert.Contains(t, e.Topology, "Shared PCS")
	assert.NotEmpty(t, e.ConstraintStack)
	assert.Len(t, e.Ledger, out.Result.Steps)
	assert.NotEmpty(t, e.Hint)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Library: config.LibraryConfig{Backend: "json", Path: filepath.Join(dir, "library.json")},
		RunLog:  config.RunLogConfig{Backend: "sqlite", Path: filepath.Join(dir, "runs.db")},
		Cache:   config.CacheConfig{Backend: "memory"},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)

	out, err := svc.Simulate(context.Background(), testSite())
	require.NoError(t, err)
	runs, err := svc.Runs(context.Background(), runlog.RunQuery{Fingerprint: out.Result.Fingerprint})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	require.NoError(t, svc.Close())

	assert.FileExists(t, cfg.Library.Path, "the default library is persisted on first use")
}

func TestNewRejectsUnknownCache(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: "memcached"}, Library: config.LibraryConfig{Backend: "memory"}}
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
