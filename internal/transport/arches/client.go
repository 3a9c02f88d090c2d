package arches

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/metrics"
	"github.com/kailas-cloud/geocatalog/internal/transport/remote"
)

// Client talks to Arches search endpoints and probes asset URLs.
type Client struct {
	httpClient   *http.Client
	fetchTimeout time.Duration
	probeTimeout time.Duration
	logger       *zap.Logger
}

// Config holds the Arches client settings.
type Config struct {
	HTTPClient   *http.Client
	FetchTimeout time.Duration
	ProbeTimeout time.Duration
	Logger       *zap.Logger
}

// NewClient creates an Arches client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient:   hc,
		fetchTimeout: cfg.FetchTimeout,
		probeTimeout: cfg.ProbeTimeout,
		logger:       log,
	}
}

// Search fetches searchURL and unwraps the envelope into raw hits, in source order.
// An envelope without total_results, with total_results 0, or without
// results.hits.hits yields no records and no error.
func (c *Client) Search(ctx context.Context, kind, searchURL string) ([]json.RawMessage, error) {
	body, err := remote.GetJSON(ctx, c.httpClient, searchURL, c.fetchTimeout)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(kind, "success").Inc()

	total := gjson.GetBytes(body, "total_results")
	if !total.Exists() || total.Int() <= 0 {
		c.logger.Debug("search returned no results", zap.String("url", searchURL))
		return nil, nil
	}
	hits := gjson.GetBytes(body, "results.hits.hits")
	if !hits.IsArray() {
		c.logger.Debug("search envelope has no hits", zap.String("url", searchURL), zap.Int64("total_results", total.Int()))
		return nil, nil
	}

	arr := hits.Array()
	out := make([]json.RawMessage, 0, len(arr))
	for _, h := range arr {
		out = append(out, json.RawMessage(h.Raw))
	}
	return out, nil
}

// Probe reports whether the asset at assetURL exists. Only 404 means absent;
// every other completed status counts as present. A probe that does not complete
// returns an error.
func (c *Client) Probe(ctx context.Context, assetURL string) (bool, error) {
	start := time.Now()
	status, err := remote.Head(ctx, c.httpClient, assetURL, c.probeTimeout)
	metrics.ProbeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if status == http.StatusNotFound {
		metrics.ProbesTotal.WithLabelValues("absent").Inc()
		return false, nil
	}
	metrics.ProbesTotal.WithLabelValues("present").Inc()
	return true, nil
}
