// Package app wires the component library, the allocation engine, the
// result cache, metrics sinks and the run log into one Service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/virtos/app/plugins"
	"github.com/kilianp07/virtos/config"
	"github.com/kilianp07/virtos/core/explain"
	"github.com/kilianp07/virtos/core/library"
	"github.com/kilianp07/virtos/core/logger"
	coremetrics "github.com/kilianp07/virtos/core/metrics"
	"github.com/kilianp07/virtos/core/model"
	"github.com/kilianp07/virtos/core/runcache"
	"github.com/kilianp07/virtos/core/runlog"
	"github.com/kilianp07/virtos/core/sim"
	inflogger "github.com/kilianp07/virtos/infra/logger"
)

// Service runs simulations against the current component library.
type Service struct {
	reg     *library.Registry
	cache   runcache.Cache
	sink    coremetrics.MetricsSink
	runs    runlog.Store
	log     logger.Logger
	now     func() time.Time
	closers []io.Closer
}

// Option customises a Service.
type Option func(*Service)

func WithCache(c runcache.Cache) Option         { return func(s *Service) { s.cache = c } }
func WithSink(m coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = m } }
func WithRunLog(r runlog.Store) Option          { return func(s *Service) { s.runs = r } }
func WithLogger(l logger.Logger) Option         { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option     { return func(s *Service) { s.now = now } }
func withClosers(c ...io.Closer) Option {
	return func(s *Service) { s.closers = append(s.closers, c...) }
}

// NewService builds a Service over reg. Without options results are cached
// in memory and runs are neither recorded nor exported.
func NewService(reg *library.Registry, opts ...Option) *Service {
	s := &Service{
		reg:   reg,
		cache: runcache.NewMemoryCache(0),
		sink:  coremetrics.NopSink{},
		runs:  runlog.NopStore{},
		log:   inflogger.NopLogger{},
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// New builds a Service from configuration: it loads the library, opens the
// run log and builds the cache and metrics sinks.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := inflogger.New("service")
	var closers []io.Closer
	fail := func(err error) (*Service, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	store, err := library.OpenStore(cfg.Library.Backend, cfg.Library.Path)
	if err != nil {
		return fail(err)
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, c)
	}
	reg, err := library.Load(ctx, store, library.WithLogger(inflogger.New("library")))
	if err != nil {
		return fail(fmt.Errorf("load library: %w", err))
	}

	cache, err := plugins.NewCache(ctx, cfg.Cache, inflogger.New("run-cache"))
	if err != nil {
		return fail(err)
	}
	if c, ok := cache.(io.Closer); ok {
		closers = append(closers, c)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fail(fmt.Errorf("metrics sinks: %w", err))
	}
	if c, ok := sink.(io.Closer); ok {
		closers = append(closers, c)
	}

	runs, err := runlog.Open(cfg.RunLog.Options())
	if err != nil {
		return fail(fmt.Errorf("run log: %w", err))
	}

	return NewService(reg,
		WithCache(cache),
		WithSink(sink),
		WithRunLog(runs),
		WithLogger(log),
		withClosers(closers...),
	), nil
}

// Library returns the component registry.
func (s *Service) Library() *library.Registry { return s.reg }

// Outcome is the result of one simulation together with its bookkeeping.
type Outcome struct {
	RunID  string                 `json:"run_id"`
	Cached bool                   `json:"cached"`
	Result model.SimulationResult `json:"result"`
}

// Simulate runs site against the current library. Results are memoised by
// site fingerprint and library hash. Failures of the cache, sinks or run log
// are logged and never fail the simulation.
func (s *Service) Simulate(ctx context.Context, site model.SiteSpec) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	arch, err := sim.ResolveArchitecture(site.Architecture)
	if err != nil {
		return Outcome{}, err
	}
	site.Architecture = arch
	fp, err := site.Fingerprint()
	if err != nil {
		return Outcome{}, fmt.Errorf("fingerprint site: %w", err)
	}
	resolver, hash := s.reg.Resolver()
	key := runcache.Key{Fingerprint: fp, RegistryHash: hash}

	started := time.Now()
	if res, ok := s.cache.Get(ctx, key); ok {
		return s.record(ctx, res, time.Since(started), true), nil
	}

	res, err := sim.NewEngine(resolver, s.log).Run(site)
	if err != nil {
		return Outcome{}, err
	}
	res.RegistryHash = hash
	s.cache.Put(ctx, key, res)
	return s.record(ctx, res, time.Since(started), false), nil
}

func (s *Service) record(ctx context.Context, res model.SimulationResult, took time.Duration, cached bool) Outcome {
	now := s.now()
	rec := runlog.NewRecord(res, now, cached)
	if err := s.runs.Append(ctx, rec); err != nil {
		s.log.Warnf("append run %s: %v", rec.ID, err)
	}
	if err := s.sink.RecordRun(coremetrics.NewRunEvent(res, rec.ID, now, took, cached)); err != nil {
		s.log.Warnf("record run %s: %v", rec.ID, err)
	}
	if ts, ok := s.sink.(coremetrics.TimeseriesRecorder); ok && !cached {
		if err := ts.RecordTimeseries(coremetrics.NewTimeseriesEvent(res, rec.ID, now)); err != nil {
			s.log.Warnf("record series %s: %v", rec.ID, err)
		}
	}
	s.log.Infow("simulation run", map[string]any{
		"run_id":       rec.ID,
		"architecture": string(res.Architecture),
		"site":         res.SiteName,
		"cached":       cached,
		"total_cost":   res.Costs.TotalCost,
		"duration_ms":  float64(took) / float64(time.Millisecond),
	})
	return Outcome{RunID: rec.ID, Cached: cached, Result: res}
}

// Comparison holds one outcome per architecture and the deltas of Virtos
// against each comparator.
type Comparison struct {
	SiteName string          `json:"site_name"`
	Outcomes []Outcome       `json:"outcomes"`
	Deltas   []explain.Delta `json:"deltas"`
}

// Outcome returns the outcome for arch.
func (c Comparison) Outcome(arch model.Architecture) (Outcome, bool) {
	for _, o := range c.Outcomes {
		if o.Result.Architecture == arch {
			return o, true
		}
	}
	return Outcome{}, false
}

// Compare simulates site under every architecture concurrently. The site's
// own architecture tag is ignored.
func (s *Service) Compare(ctx context.Context, site model.SiteSpec) (Comparison, error) {
	archs := model.Architectures()
	outcomes := make([]Outcome, len(archs))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range archs {
		g.Go(func() error {
			o, err := s.Simulate(gctx, site.WithArchitecture(a))
			if err != nil {
				return fmt.Errorf("%s: %w", a, err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}
	cmp := Comparison{SiteName: site.Name, Outcomes: outcomes}
	virtos := outcomes[0].Result
	for _, o := range outcomes[1:] {
		cmp.Deltas = append(cmp.Deltas, explain.Compare(virtos, o.Result))
	}
	return cmp, nil
}

// Explanation is the audit view of one result.
type Explanation struct {
	Topology        string                 `json:"topology"`
	ConstraintStack []string               `json:"constraint_stack"`
	Binding         *model.ConstraintCount `json:"binding,omitempty"`
	Peak            *explain.PeakDriver    `json:"peak,omitempty"`
	Hint            string                 `json:"hint"`
	Ledger          []explain.LedgerRow    `json:"ledger"`
}

// Explain builds the audit view of res, which was produced from site.
func Explain(site model.SiteSpec, res model.SimulationResult) Explanation {
	rows := explain.Ledger(res)
	e := Explanation{
		Topology:        explain.Topology(res.Architecture),
		ConstraintStack: explain.ConstraintStack(site, res.Architecture),
		Hint:            explain.Hint(rows),
		Ledger:          rows,
	}
	if b, ok := explain.BindingConstraint(res); ok {
		e.Binding = &b
	}
	if p, ok := explain.Peak(rows); ok {
		e.Peak = &p
	}
	return e
}

// Runs queries the run log.
func (s *Service) Runs(ctx context.Context, q runlog.RunQuery) ([]runlog.RunRecord, error) {
	return s.runs.Query(ctx, q)
}

// Close flushes and releases the run log, sinks, cache and library store.
func (s *Service) Close() error {
	errs := []error{s.runs.Close()}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
