package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/logger"
)

// Group is the read view of a configured catalog group.
type Group struct {
	Name     string
	Kind     adapter.Kind
	URL      string
	Status   outcome.Status
	Items    int
	LastLoad *outcome.Summary
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Service is the registry of configured groups. It allows one load per group at a time.
type Service struct {
	order  []string
	groups map[string]adapter.Config
	loader Loader
	repo   Repository
	logger *zap.Logger

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	active map[string]*run
	closed bool

	now   func() time.Time
	newID func() string
}

// New validates the group configurations and creates the service.
func New(groups []adapter.Config, loader Loader, repo Repository, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		groups: make(map[string]adapter.Config, len(groups)),
		loader: loader,
		repo:   repo,
		logger: log,
		active: make(map[string]*run),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, g := range groups {
		cfg, err := adapter.New(g)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Group, err)
		}
		if _, dup := s.groups[cfg.Group]; dup {
			return nil, fmt.Errorf("group %q: %w", cfg.Group,
				domain.NewConfigurationError("group", "is defined more than once"))
		}
		s.groups[cfg.Group] = cfg
		s.order = append(s.order, cfg.Group)
	}
	s.base, s.stop = context.WithCancel(logger.ContextWithLogger(context.Background(), log))
	return s, nil
}

// List returns every configured group in configuration order.
func (s *Service) List(ctx context.Context) ([]Group, error) {
	out := make([]Group, 0, len(s.order))
	for _, name := range s.order {
		g, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Get returns one group with its current status.
func (s *Service) Get(ctx context.Context, name string) (Group, error) {
	cfg, err := s.config(name)
	if err != nil {
		return Group{}, err
	}
	g := Group{Name: cfg.Group, Kind: cfg.Kind, URL: cfg.BaseURL, Status: outcome.StatusIdle}

	sum, err := s.repo.GetSummary(ctx, name)
	switch {
	case err == nil:
		g.LastLoad = &sum
		g.Status = sum.Status
	case errors.Is(err, domain.ErrNotFound):
	default:
		return Group{}, fmt.Errorf("get group %q: %w", name, err)
	}

	if s.loading(name) {
		g.Status = outcome.StatusLoading
	}

	if g.Items, err = s.repo.Count(ctx, name); err != nil {
		return Group{}, fmt.Errorf("count group %q items: %w", name, err)
	}
	return g, nil
}

// Load runs a load of the group and waits for it. Cancelling ctx cancels the load.
func (s *Service) Load(ctx context.Context, name string) (outcome.Summary, error) {
	cfg, err := s.config(name)
	if err != nil {
		return outcome.Summary{}, err
	}
	r, ctx, err := s.begin(logger.ContextWithLogger(ctx, s.logger), name)
	if err != nil {
		return outcome.Summary{}, err
	}
	return s.execute(ctx, r, cfg)
}

// Start launches a load in the background and returns its load id.
func (s *Service) Start(_ context.Context, name string) (string, error) {
	cfg, err := s.config(name)
	if err != nil {
		return "", err
	}
	r, ctx, err := s.begin(s.base, name)
	if err != nil {
		return "", err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(ctx, r, cfg)
	}()
	return r.id, nil
}

// Cancel cancels the group's in-flight load and waits for it to stop.
func (s *Service) Cancel(ctx context.Context, name string) error {
	if _, err := s.config(name); err != nil {
		return err
	}
	s.mu.Lock()
	r, ok := s.active[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cancel %q: %w", name, domain.ErrNoActiveLoad)
	}
	r.cancel()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items returns one page of the group's items.
func (s *Service) Items(ctx context.Context, name, cursor string, limit int) ([]item.Item, string, error) {
	if _, err := s.config(name); err != nil {
		return nil, "", err
	}
	items, next, err := s.repo.Page(ctx, name, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list group %q items: %w", name, err)
	}
	return items, next, nil
}

// HealthCheck fails when the latest load of any group failed.
func (s *Service) HealthCheck(ctx context.Context) error {
	var failed []error
	for _, name := range s.order {
		sum, err := s.repo.GetSummary(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return err
		}
		if sum.Status == outcome.StatusFailed {
			failed = append(failed, fmt.Errorf("group %q: %s", name, sum.Error))
		}
	}
	return errors.Join(failed...)
}

// Close cancels all loads and waits for background loads to finish.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	for _, r := range s.active {
		r.cancel()
	}
	s.mu.Unlock()
	s.stop()
	s.wg.Wait()
}

func (s *Service) config(name string) (adapter.Config, error) {
	cfg, ok := s.groups[name]
	if !ok {
		return adapter.Config{}, fmt.Errorf("group %q: %w", name, domain.ErrGroupNotFound)
	}
	return cfg, nil
}

func (s *Service) loading(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[name]
	return ok
}

func (s *Service) begin(parent context.Context, name string) (*run, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, fmt.Errorf("load %q: %w", name, context.Canceled)
	}
	if _, busy := s.active[name]; busy {
		return nil, nil, fmt.Errorf("load %q: %w", name, domain.ErrLoadInProgress)
	}
	ctx, cancel := context.WithCancel(parent)
	r := &run{id: s.newID(), cancel: cancel, done: make(chan struct{})}
	s.active[name] = r
	return r, ctx, nil
}

func (s *Service) finish(name string, r *run) {
	s.mu.Lock()
	if s.active[name] == r {
		delete(s.active, name)
	}
	s.mu.Unlock()
	r.cancel()
	close(r.done)
}

func (s *Service) execute(ctx context.Context, r *run, cfg adapter.Config) (outcome.Summary, error) {
	defer s.finish(cfg.Group, r)
	store := context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("group", cfg.Group), zap.String("load_id", r.id))

	started := outcome.Summary{
		LoadID:    r.id,
		Group:     cfg.Group,
		Kind:      string(cfg.Kind),
		Status:    outcome.StatusLoading,
		StartedAt: s.now(),
	}
	if err := s.repo.Reset(ctx, cfg.Group); err != nil {
		err = fmt.Errorf("reset group %q: %w", cfg.Group, err)
		started.Finish(s.now(), err, errors.Is(err, context.Canceled))
		s.save(store, log, started)
		return started, err
	}
	s.save(store, log, started)

	sum, err := s.loader.LoadWithID(ctx, r.id, cfg, s.repo)
	s.save(store, log, sum)
	if err != nil {
		return sum, fmt.Errorf("load group %q: %w", cfg.Group, err)
	}
	return sum, nil
}

func (s *Service) save(ctx context.Context, log *zap.Logger, sum outcome.Summary) {
	if err := s.repo.SaveSummary(ctx, sum); err != nil {
		log.Warn("save load summary failed", zap.Error(err))
	}
}
