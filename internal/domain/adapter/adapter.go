package adapter

import (
	"net/url"
	"strings"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
)

// Kind selects the remote source and the item type an adapter produces.
type Kind string

// Supported adapter kinds.
const (
	KindPointCloud   Kind = "pointcloud"
	KindBIM          Kind = "bim"
	KindSensorThings Kind = "sensorthings"
)

// Default cache durations handed to the URL proxy.
const (
	DefaultSearchCacheDuration    = "1d"
	DefaultLocationsCacheDuration = "0d"
	DefaultScale                  = 1.0
)

// Rewrite is a suffix substitution applied to extracted asset URLs.
type Rewrite struct {
	From string
	To   string
}

// Apply replaces a trailing From with To. URLs without the suffix are returned unchanged.
func (r *Rewrite) Apply(u string) string {
	if r == nil || r.From == "" || !strings.HasSuffix(u, r.From) {
		return u
	}
	return strings.TrimSuffix(u, r.From) + r.To
}

// SensorThings holds the station filters of a sensorthings adapter.
type SensorThings struct {
	DatastreamIDs       []string
	ObservedPropertyIDs []string
	StationWhitelist    []string
	StationBlacklist    []string
	ExternalLinkBase    string
}

// Config is the immutable configuration of one adapter instance.
type Config struct {
	Group           string
	Kind            Kind
	BaseURL         string
	GraphID         string
	AssetFieldID    string
	NameFieldID     string
	PositionFieldID string
	ScaleFieldID    string
	DefaultScale    float64
	ItemProperties  map[string]any
	CacheDuration   string
	ForceProxy      bool
	SkipProbe       bool
	Rewrite         *Rewrite
	SensorThings    SensorThings
}

// New applies defaults, validates, and returns the adapter configuration.
// Validation failures are ConfigurationErrors and happen before any I/O.
func New(c Config) (Config, error) {
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultScale == 0 {
		c.DefaultScale = DefaultScale
	}
	if c.CacheDuration == "" {
		if c.Kind == KindSensorThings {
			c.CacheDuration = DefaultLocationsCacheDuration
		} else {
			c.CacheDuration = DefaultSearchCacheDuration
		}
	}
	if c.Rewrite == nil && c.Kind == KindPointCloud {
		c.Rewrite = &Rewrite{From: "cloud.js", To: "3dtiles/tileset.json"}
	}
}

// Validate checks the required settings for the adapter kind.
func (c *Config) Validate() error {
	if c.Group == "" {
		return domain.NewConfigurationError("group", "is required")
	}
	switch c.Kind {
	case KindPointCloud, KindBIM, KindSensorThings:
	default:
		return domain.NewConfigurationError("kind", "must be pointcloud, bim or sensorthings, got "+string(c.Kind))
	}
	if !isHTTPURL(c.BaseURL) {
		return domain.NewConfigurationError("url", "must be an absolute http(s) URL")
	}
	if c.DefaultScale < 0 {
		return domain.NewConfigurationError("default_scale", "must be positive")
	}
	if c.Kind == KindSensorThings {
		return nil
	}
	if c.GraphID == "" {
		return domain.NewConfigurationError("graph_id", "is required")
	}
	if c.AssetFieldID == "" {
		return domain.NewConfigurationError("asset_field_id", "is required")
	}
	if c.NameFieldID == "" {
		return domain.NewConfigurationError("name_field_id", "is required")
	}
	if c.Kind == KindBIM && c.PositionFieldID == "" {
		return domain.NewConfigurationError("position_field_id", "is required for bim groups")
	}
	return nil
}

// ItemType returns the item type materialized for this adapter.
func (c *Config) ItemType() item.Type {
	switch c.Kind {
	case KindBIM:
		return item.TypeGLTF
	case KindSensorThings:
		return item.TypeSensor
	default:
		return item.Type3DTiles
	}
}

// RequiresPosition reports whether records without a position are skipped.
func (c *Config) RequiresPosition() bool { return c.Kind == KindBIM }

// ItemDefaults returns the renderer options every item of this kind starts with.
func (c *Config) ItemDefaults() map[string]any {
	switch c.Kind {
	case KindPointCloud:
		return map[string]any{"clampToGround": true, "pointSize": 2.0}
	case KindBIM:
		return map[string]any{"upAxis": "Y"}
	default:
		return nil
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
