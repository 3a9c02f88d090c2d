package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kailas-cloud/geocatalog/internal/db/memory"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/proxy"
	"github.com/kailas-cloud/geocatalog/internal/repository/probecache"
	"github.com/kailas-cloud/geocatalog/internal/transport/arches"
	"github.com/kailas-cloud/geocatalog/internal/transport/sensorthings"
	loaduc "github.com/kailas-cloud/geocatalog/internal/usecase/load"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultProbeTimeout = 10 * time.Second
)

// loadUseCase is the internal interface for a load cycle, swapped in tests.
type loadUseCase interface {
	Load(ctx context.Context, cfg adapter.Config, w loaduc.ItemWriter) (outcome.Summary, error)
}

// Client is the geocatalog SDK entry point. It is safe for concurrent use.
type Client struct {
	loader loadUseCase
	obs    *observer
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		fetchTimeout: defaultFetchTimeout,
		probeTimeout: defaultProbeTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.concurrency < 0 || cfg.probesPerSecond < 0 {
		return nil, errors.New("geocatalog: concurrency and probe rate must not be negative")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{loader: wireLoader(cfg, obs), obs: obs}, nil
}

func wireLoader(cfg *clientConfig, obs *observer) *loaduc.Service {
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	urlProxy := proxy.New(proxy.Config{
		BaseURL:         cfg.proxyURL,
		ProxyAllDomains: cfg.proxyAllDomains,
		Domains:         cfg.proxyDomains,
	})

	archesClient := arches.NewClient(&arches.Config{
		HTTPClient:   hc,
		FetchTimeout: cfg.fetchTimeout,
		ProbeTimeout: cfg.probeTimeout,
	})
	staClient := sensorthings.NewClient(&sensorthings.Config{
		HTTPClient:   hc,
		Proxy:        urlProxy,
		FetchTimeout: cfg.fetchTimeout,
	})

	var prober loaduc.Prober = archesClient
	if cfg.probeCacheTTL > 0 {
		prober = probecache.New(archesClient, memory.NewStore(), "sdk:", cfg.probeCacheTTL,
			obs.probeCacheCounter(), nil)
	}

	return loaduc.New(archesClient, prober, staClient, urlProxy).
		WithConcurrency(cfg.concurrency).
		WithProbeRate(cfg.probesPerSecond)
}

// Load runs one load of g and returns its items in no particular order.
// Configuration and fetch failures are returned as errors (see ErrConfiguration, ErrFetch).
// When ctx is cancelled the items materialized so far are returned with ctx's error.
func (c *Client) Load(ctx context.Context, g Group) (items []Item, sum Summary, err error) {
	start := time.Now()
	defer func() { c.obs.observe(&sum, start, err) }()

	cfg, err := g.toAdapter()
	if err != nil {
		sum = Summary{Group: g.Name, Kind: string(g.Kind), Status: string(outcome.StatusFailed), Error: err.Error()}
		return nil, sum, fmt.Errorf("load %q: %w", g.Name, err)
	}

	col := &collector{}
	res, err := c.loader.Load(ctx, cfg, col)
	sum = summaryFromDomain(&res)
	if err != nil {
		return col.items, sum, fmt.Errorf("load %q: %w", g.Name, err)
	}
	return col.items, sum, nil
}

// collector gathers items in memory. The load service calls Append from one goroutine.
type collector struct {
	items []Item
}

func (c *collector) Append(_ context.Context, _ string, it item.Item) error {
	c.items = append(c.items, itemFromDomain(&it))
	return nil
}
