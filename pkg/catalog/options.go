package catalog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client

	proxyURL        string
	proxyAllDomains bool
	proxyDomains    []string

	concurrency     int
	probesPerSecond float64
	fetchTimeout    time.Duration
	probeTimeout    time.Duration
	probeCacheTTL   time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithHTTPClient sets the HTTP client used for search, locations and probe requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithProxy routes requests for the given domains through a CORS/caching proxy.
// With no domains only groups marked ForceProxy are proxied.
func WithProxy(baseURL string, domains ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.proxyURL = baseURL
		c.proxyDomains = domains
	})
}

// WithProxyAllDomains proxies every absolute http(s) URL.
func WithProxyAllDomains() Option {
	return optionFunc(func(c *clientConfig) {
		c.proxyAllDomains = true
	})
}

// WithConcurrency bounds the number of records materialized (and probed) at once.
// Default: 8.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithProbeRate paces asset probes to perSecond. 0 disables pacing (default).
func WithProbeRate(perSecond float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.probesPerSecond = perSecond
	})
}

// WithTimeouts sets the per-request timeouts for fetches and probes.
// Defaults: 30s and 10s.
func WithTimeouts(fetch, probe time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = fetch
		c.probeTimeout = probe
	})
}

// WithProbeCache remembers probe outcomes in memory for ttl across loads of the same Client.
func WithProbeCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.probeCacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (load counts, durations and item counts)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
