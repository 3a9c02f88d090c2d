package sensorthings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/geo"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/metrics"
	"github.com/kailas-cloud/geocatalog/internal/transport/remote"
)

const locationsPath = "Locations?$expand=Things/Datastreams/ObservedProperty"

var errUnknownFormat = errors.New("unknown format: response has no value")

// URLProxy routes outbound URLs through the CORS/caching proxy.
type URLProxy interface {
	URL(raw, cacheDuration string, force bool) string
}

// Client reads station locations from a SensorThings API service.
type Client struct {
	httpClient   *http.Client
	proxy        URLProxy
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// Config holds the SensorThings client settings.
type Config struct {
	HTTPClient   *http.Client
	Proxy        URLProxy
	FetchTimeout time.Duration
	Logger       *zap.Logger
}

// NewClient creates a SensorThings client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{httpClient: hc, proxy: cfg.Proxy, fetchTimeout: cfg.FetchTimeout, logger: log}
}

// ServiceURL returns base with exactly one trailing slash.
func ServiceURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/"
}

// LocationsURL returns the expanded Locations query for a service.
func LocationsURL(base string) string {
	return ServiceURL(base) + locationsPath
}

// ObservationsURL returns the observations endpoint of one datastream.
func ObservationsURL(base string, id ID) string {
	return ServiceURL(base) + "Datastreams(" + id.Literal() + ")/Observations"
}

// Locations fetches and decodes the Locations collection. A single object
// "value" is read as a one-element list; a missing "value" is a fetch error.
func (c *Client) Locations(ctx context.Context, cfg adapter.Config) ([]Location, error) {
	target := LocationsURL(cfg.BaseURL)
	if c.proxy != nil {
		target = c.proxy.URL(target, cfg.CacheDuration, cfg.ForceProxy)
	}

	body, err := remote.GetJSON(ctx, c.httpClient, target, c.fetchTimeout)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(adapter.KindSensorThings), "error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(adapter.KindSensorThings), "success").Inc()

	var resp locationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.FetchError{URL: target, Status: http.StatusOK, Err: err}
	}
	v := strings.TrimSpace(string(resp.Value))
	if v == "" || v == "null" {
		return nil, &domain.FetchError{URL: target, Status: http.StatusOK, Err: errUnknownFormat}
	}

	var locs []Location
	if strings.HasPrefix(v, "{") {
		var one Location
		if err := json.Unmarshal(resp.Value, &one); err != nil {
			return nil, &domain.FetchError{URL: target, Status: http.StatusOK, Err: fmt.Errorf("decode location: %w", err)}
		}
		locs = []Location{one}
	} else if err := json.Unmarshal(resp.Value, &locs); err != nil {
		return nil, &domain.FetchError{URL: target, Status: http.StatusOK, Err: fmt.Errorf("decode locations: %w", err)}
	}
	return locs, nil
}

// Stations fetches the locations of a group and maps them to one result per datastream.
func (c *Client) Stations(ctx context.Context, cfg adapter.Config) ([]outcome.Result, error) {
	locs, err := c.Locations(ctx, cfg)
	if err != nil {
		return nil, err
	}
	results := Map(cfg, locs)
	c.logger.Debug("sensorthings locations mapped",
		zap.String("group", cfg.Group), zap.Int("locations", len(locs)), zap.Int("results", len(results)))
	return results, nil
}

// Map applies the station and datastream filters of cfg and builds one sensor item
// per remaining datastream. A location whose shape is neither a Point nor a Feature
// with Point geometry yields one invalid_field skip per datastream.
func Map(cfg adapter.Config, locs []Location) []outcome.Result {
	st := cfg.SensorThings
	serviceURL := ServiceURL(cfg.BaseURL)
	var results []outcome.Result

	for _, loc := range locs {
		if !stationAllowed(st, loc) {
			continue
		}
		streams := filterDatastreams(st, loc.Things)
		if len(streams) == 0 {
			continue
		}

		origin, err := geo.OriginFromGeoJSON(loc.Location)
		if err != nil {
			for range streams {
				results = append(results, outcome.NewSkip(outcome.SkipInvalidField,
					fmt.Errorf("location %s: %w", loc.ID, err)))
			}
			continue
		}

		for _, ds := range streams {
			results = append(results, datastreamResult(cfg, serviceURL, origin, ds))
		}
	}
	return results
}

func datastreamResult(cfg adapter.Config, serviceURL string, origin geo.Origin, ds Datastream) outcome.Result {
	props := map[string]any{
		"identifier": ds.ID.String(),
		"unit":       ds.UnitOfMeasurement.Name,
	}
	if ds.ObservedProperty != nil {
		props["observedProperty"] = ds.ObservedProperty.Name
	}
	if base := cfg.SensorThings.ExternalLinkBase; base != "" {
		props["link"] = base + "?sid=" + serviceURL + "__" + ds.ID.String()
	}
	for k, v := range cfg.ItemProperties {
		props[k] = v
	}

	it, err := item.New(item.Params{
		Group:      cfg.Group,
		Type:       item.TypeSensor,
		URL:        ObservationsURL(cfg.BaseURL, ds.ID),
		Name:       ds.Name,
		Origin:     &origin,
		Properties: props,
	})
	if err != nil {
		return outcome.NewSkip(outcome.SkipInvalidField, err)
	}
	return outcome.NewItem(it)
}

func stationAllowed(st adapter.SensorThings, loc Location) bool {
	id := loc.ID.String()
	if len(st.StationWhitelist) > 0 && !slices.Contains(st.StationWhitelist, id) {
		return false
	}
	if slices.Contains(st.StationBlacklist, id) {
		return false
	}
	v := strings.TrimSpace(string(loc.Location))
	return v != "" && v != "null"
}

func filterDatastreams(st adapter.SensorThings, things []Thing) []Datastream {
	var out []Datastream
	for _, th := range things {
		for _, ds := range th.Datastreams {
			if len(st.DatastreamIDs) > 0 && !slices.Contains(st.DatastreamIDs, ds.ID.String()) {
				continue
			}
			if len(st.ObservedPropertyIDs) > 0 &&
				(ds.ObservedProperty == nil || !slices.Contains(st.ObservedPropertyIDs, ds.ObservedProperty.ID.String())) {
				continue
			}
			out = append(out, ds)
		}
	}
	return out
}
