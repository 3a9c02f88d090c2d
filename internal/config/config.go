package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
)

// Config holds the geocatalog configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Loader   LoaderConfig   `yaml:"loader"`
	Groups   []GroupConfig  `yaml:"groups"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ProxyConfig holds the CORS/caching proxy settings.
type ProxyConfig struct {
	BaseURL         string   `yaml:"base_url"`
	ProxyAllDomains bool     `yaml:"proxy_all_domains"`
	Domains         []string `yaml:"domains"`
}

// LoaderConfig holds load pipeline settings.
type LoaderConfig struct {
	MaxConcurrentProbes int     `yaml:"max_concurrent_probes"`
	ProbesPerSecond     float64 `yaml:"probes_per_second"` // 0 = unlimited
	ProbeTimeoutSec     int     `yaml:"probe_timeout_sec"`
	FetchTimeoutSec     int     `yaml:"fetch_timeout_sec"`
	ProbeCacheTTLSec    int     `yaml:"probe_cache_ttl_sec"` // 0 disables the probe cache
	LoadOnStart         bool    `yaml:"load_on_start"`
}

// GroupConfig describes one catalog group and its adapter.
type GroupConfig struct {
	Name            string         `yaml:"name"`
	Kind            string         `yaml:"kind"` // pointcloud, bim, sensorthings
	URL             string         `yaml:"url"`
	GraphID         string         `yaml:"graph_id"`
	AssetFieldID    string         `yaml:"asset_field_id"`
	NameFieldID     string         `yaml:"name_field_id"`
	PositionFieldID string         `yaml:"position_field_id"`
	ScaleFieldID    string         `yaml:"scale_field_id"`
	DefaultScale    float64        `yaml:"default_scale"`
	ItemProperties  map[string]any `yaml:"item_properties"`
	CacheDuration   string         `yaml:"cache_duration"`
	ForceProxy      bool           `yaml:"force_proxy"`
	SkipProbe       bool           `yaml:"skip_probe"`
	Rewrite         *RewriteConfig `yaml:"rewrite"`

	DatastreamIDs       []string `yaml:"datastream_ids"`
	ObservedPropertyIDs []string `yaml:"observed_property_ids"`
	StationWhitelist    []string `yaml:"station_whitelist"`
	StationBlacklist    []string `yaml:"station_blacklist"`
	ExternalLinkBase    string   `yaml:"external_link_base"`
}

// RewriteConfig is an asset URL suffix substitution.
type RewriteConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ToAdapter converts the group settings into a validated adapter configuration.
func (g GroupConfig) ToAdapter() (adapter.Config, error) {
	c := adapter.Config{
		Group:           g.Name,
		Kind:            adapter.Kind(g.Kind),
		BaseURL:         g.URL,
		GraphID:         g.GraphID,
		AssetFieldID:    g.AssetFieldID,
		NameFieldID:     g.NameFieldID,
		PositionFieldID: g.PositionFieldID,
		ScaleFieldID:    g.ScaleFieldID,
		DefaultScale:    g.DefaultScale,
		ItemProperties:  g.ItemProperties,
		CacheDuration:   g.CacheDuration,
		ForceProxy:      g.ForceProxy,
		SkipProbe:       g.SkipProbe,
		SensorThings: adapter.SensorThings{
			DatastreamIDs:       g.DatastreamIDs,
			ObservedPropertyIDs: g.ObservedPropertyIDs,
			StationWhitelist:    g.StationWhitelist,
			StationBlacklist:    g.StationBlacklist,
			ExternalLinkBase:    g.ExternalLinkBase,
		},
	}
	if g.Rewrite != nil {
		c.Rewrite = &adapter.Rewrite{From: g.Rewrite.From, To: g.Rewrite.To}
	}
	return adapter.New(c)
}

// Adapters converts every configured group.
func (c *Config) Adapters() ([]adapter.Config, error) {
	out := make([]adapter.Config, 0, len(c.Groups))
	for i, g := range c.Groups {
		a, err := g.ToAdapter()
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.DefaultPageSize <= 0 {
		c.HTTP.DefaultPageSize = 50
	}
	if c.HTTP.MaxPageSize <= 0 {
		c.HTTP.MaxPageSize = 500
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "geocatalog:"
	}
	if c.Loader.MaxConcurrentProbes <= 0 {
		c.Loader.MaxConcurrentProbes = 8
	}
	if c.Loader.ProbeTimeoutSec <= 0 {
		c.Loader.ProbeTimeoutSec = 10
	}
	if c.Loader.FetchTimeoutSec <= 0 {
		c.Loader.FetchTimeoutSec = 30
	}
	if c.Loader.ProbeCacheTTLSec < 0 {
		c.Loader.ProbeCacheTTLSec = 0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be valkey, redis or memory, got %q", c.Database.Driver)
	}
	if c.Loader.ProbesPerSecond < 0 {
		return fmt.Errorf("loader.probes_per_second must not be negative")
	}
	if _, err := c.Adapters(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if seen[g.Name] {
			return fmt.Errorf("groups[%d]: duplicate group name %q", i, g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
