package load

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/logger"
	"github.com/kailas-cloud/geocatalog/internal/metrics"
	"github.com/kailas-cloud/geocatalog/internal/transport/arches"
	"github.com/kailas-cloud/geocatalog/internal/usecase/materialize"
)

// DefaultMaxConcurrentProbes bounds in-flight probes when no limit is configured.
const DefaultMaxConcurrentProbes = 8

// Service runs one load cycle of a group: search, fan-out materialization,
// and single-writer accumulation into an ItemWriter.
type Service struct {
	search    Searcher
	prober    Prober
	stations  StationSource
	proxy     URLProxy
	limit     int
	limiter   *rate.Limiter
	now       func() time.Time
	newLoadID func() string
}

// New creates a load service. stations may be nil when no sensorthings group is configured.
func New(search Searcher, prober Prober, stations StationSource, proxy URLProxy) *Service {
	return &Service{
		search:    search,
		prober:    prober,
		stations:  stations,
		proxy:     proxy,
		limit:     DefaultMaxConcurrentProbes,
		now:       time.Now,
		newLoadID: newLoadID,
	}
}

// WithConcurrency sets the maximum number of records materialized at once.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.limit = n
	}
	return s
}

// WithProbeRate paces probes to perSecond (0 disables pacing).
func (s *Service) WithProbeRate(perSecond float64) *Service {
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return s
}

// Load runs one load of cfg and writes every materialized item to w.
// Only configuration and fetch errors are returned, plus context.Canceled when the
// load was cancelled; items appended before cancellation stay in w.
func (s *Service) Load(ctx context.Context, cfg adapter.Config, w ItemWriter) (outcome.Summary, error) {
	return s.LoadWithID(ctx, s.newLoadID(), cfg, w)
}

// LoadWithID is Load with a caller-chosen load id.
func (s *Service) LoadWithID(ctx context.Context, loadID string, cfg adapter.Config, w ItemWriter) (outcome.Summary, error) {
	sum := outcome.Summary{
		LoadID:    loadID,
		Group:     cfg.Group,
		Kind:      string(cfg.Kind),
		Status:    outcome.StatusLoading,
		StartedAt: s.now(),
	}
	ctx, log := logger.WithLoad(ctx, logger.FromContext(ctx), cfg.Group, loadID)

	err := s.run(ctx, cfg, w, &sum)
	cancelled := errors.Is(err, context.Canceled)
	sum.Finish(s.now(), err, cancelled)

	status := "success"
	switch {
	case cancelled:
		status = "cancelled"
		log.Info("load cancelled", zap.Int("records", sum.Records), zap.Int("items", sum.Items))
	case err != nil:
		status = "error"
		log.Warn("load failed", zap.Error(err))
	default:
		log.Info("load finished",
			zap.Int("records", sum.Records),
			zap.Int("items", sum.Items),
			zap.Int("skipped", sum.SkippedTotal()),
			zap.Duration("duration", sum.Duration()))
	}
	metrics.LoadsTotal.WithLabelValues(sum.Kind, status).Inc()
	metrics.LoadDuration.WithLabelValues(sum.Kind).Observe(sum.Duration().Seconds())
	return sum, err
}

func (s *Service) run(ctx context.Context, cfg adapter.Config, w ItemWriter, sum *outcome.Summary) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Kind == adapter.KindSensorThings {
		return s.runStations(ctx, cfg, w, sum)
	}

	searchURL, err := arches.BuildSearchURL(arches.Query{
		BaseURL:       cfg.BaseURL,
		GraphID:       cfg.GraphID,
		CacheDuration: cfg.CacheDuration,
		ForceProxy:    cfg.ForceProxy,
	}, s.proxy)
	if err != nil {
		return fmt.Errorf("build search url: %w", err)
	}
	records, err := s.search.Search(ctx, string(cfg.Kind), searchURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("search %s: %w", cfg.Group, err)
	}
	if len(records) == 0 {
		return nil
	}

	m, err := materialize.New(cfg, s.pacedProber(), s.proxy)
	if err != nil {
		return err
	}
	return s.fanOut(ctx, cfg, records, m, w, sum)
}

func (s *Service) runStations(ctx context.Context, cfg adapter.Config, w ItemWriter, sum *outcome.Summary) error {
	if s.stations == nil {
		return fmt.Errorf("sensorthings group %s: no station source configured", cfg.Group)
	}
	results, err := s.stations.Stations(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("locations %s: %w", cfg.Group, err)
	}
	acc := newAccumulator(ctx, cfg, w, sum)
	for _, r := range results {
		acc.submit(ctx, r)
	}
	if err := acc.close(); err != nil {
		return err
	}
	return ctx.Err()
}

// fanOut materializes records with at most s.limit in flight. Records not yet
// started when ctx is cancelled are counted as cancelled.
func (s *Service) fanOut(
	ctx context.Context, cfg adapter.Config, records []json.RawMessage,
	m *materialize.Service, w ItemWriter, sum *outcome.Summary,
) error {
	acc := newAccumulator(ctx, cfg, w, sum)

	var g errgroup.Group
	g.SetLimit(s.limit)
	for _, raw := range records {
		if ctx.Err() != nil {
			acc.submit(ctx, outcome.NewSkip(outcome.SkipCancelled, ctx.Err()))
			continue
		}
		g.Go(func() error {
			acc.submit(ctx, m.Materialize(ctx, raw))
			return nil
		})
	}
	_ = g.Wait()

	if err := acc.close(); err != nil {
		return err
	}
	return ctx.Err()
}

// pacedProber applies the probe rate limit, if any.
func (s *Service) pacedProber() materialize.Prober {
	if s.prober == nil {
		return nil
	}
	if s.limiter == nil {
		return s.prober
	}
	return &pacedProber{next: s.prober, limiter: s.limiter}
}

type pacedProber struct {
	next    Prober
	limiter *rate.Limiter
}

func (p *pacedProber) Probe(ctx context.Context, url string) (bool, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("probe rate limit: %w", err)
	}
	return p.next.Probe(ctx, url)
}

// accumulator owns the summary and the writer: results are tallied under mu and
// items are handed to a single writer goroutine.
type accumulator struct {
	kind  string
	group string
	mu    sync.Mutex
	sum   *outcome.Summary
	items chan item.Item
	done  chan error
}

func newAccumulator(ctx context.Context, cfg adapter.Config, w ItemWriter, sum *outcome.Summary) *accumulator {
	a := &accumulator{
		kind:  string(cfg.Kind),
		group: cfg.Group,
		sum:   sum,
		items: make(chan item.Item),
		done:  make(chan error, 1),
	}
	go a.write(context.WithoutCancel(ctx), w)
	return a
}

func (a *accumulator) write(ctx context.Context, w ItemWriter) {
	var firstErr error
	for it := range a.items {
		if firstErr != nil {
			continue
		}
		if err := w.Append(ctx, a.group, it); err != nil {
			firstErr = fmt.Errorf("append item %s: %w", it.ID(), err)
		}
	}
	a.done <- firstErr
}

// submit tallies r and forwards its item, if any. An item produced after
// cancellation is dropped and counted as cancelled.
func (a *accumulator) submit(ctx context.Context, r outcome.Result) {
	if it, ok := r.Item(); ok {
		select {
		case a.items <- it:
		case <-ctx.Done():
			r = outcome.NewSkip(outcome.SkipCancelled, ctx.Err())
		}
	}

	label := "item"
	if r.Skipped() {
		label = string(r.Reason())
	}
	metrics.RecordsTotal.WithLabelValues(a.kind, label).Inc()

	a.mu.Lock()
	a.sum.Add(r)
	a.mu.Unlock()
}

func (a *accumulator) close() error {
	close(a.items)
	return <-a.done
}
