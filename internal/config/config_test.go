package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "valkey", Addrs: []string{"localhost:6379"}},
		Groups: []GroupConfig{{
			Name:         "clouds",
			Kind:         "pointcloud",
			URL:          "https://arches.example.org/",
			GraphID:      "9b591814-c0f2-11e8-9c8c-0242ac120004",
			AssetFieldID: "url",
			NameFieldID:  "name",
		}},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "memory"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	expected := `database.driver must be valkey, redis or memory, got "postgres"`
	err := cfg.Validate()
	if err == nil || err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %v\nwant: %q", err, expected)
	}
}

func TestValidate_InvalidGroup(t *testing.T) {
	cfg := validConfig()
	cfg.Groups[0].Kind = "bim" // bim requires position_field_id

	err := cfg.Validate()
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate_DuplicateGroup(t *testing.T) {
	cfg := validConfig()
	cfg.Groups = append(cfg.Groups, cfg.Groups[0])

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate group name")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Loader.MaxConcurrentProbes != 8 {
		t.Errorf("expected MaxConcurrentProbes=8, got %d", cfg.Loader.MaxConcurrentProbes)
	}
	if cfg.Loader.ProbeTimeoutSec != 10 {
		t.Errorf("expected ProbeTimeoutSec=10, got %d", cfg.Loader.ProbeTimeoutSec)
	}
	if cfg.Loader.FetchTimeoutSec != 30 {
		t.Errorf("expected FetchTimeoutSec=30, got %d", cfg.Loader.FetchTimeoutSec)
	}
	if cfg.Loader.ProbesPerSecond != 0 {
		t.Errorf("expected ProbesPerSecond=0, got %f", cfg.Loader.ProbesPerSecond)
	}
	if cfg.Storage.KeyPrefix != "geocatalog:" {
		t.Errorf("expected KeyPrefix='geocatalog:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "memory", ReadinessTimeout: 15},
		Loader:   LoaderConfig{MaxConcurrentProbes: 2, ProbeTimeoutSec: 3},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected Driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Loader.MaxConcurrentProbes != 2 || cfg.Loader.ProbeTimeoutSec != 3 {
		t.Errorf("loader settings overridden: %+v", cfg.Loader)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestToAdapter(t *testing.T) {
	g := GroupConfig{
		Name:             "sta",
		Kind:             "sensorthings",
		URL:              "http://sta.example.org/v1.0/",
		StationBlacklist: []string{"7"},
		ExternalLinkBase: "https://viewer.example.org/",
		CacheDuration:    "1h",
	}
	a, err := g.ToAdapter()
	if err != nil {
		t.Fatalf("ToAdapter: %v", err)
	}
	if a.Kind != adapter.KindSensorThings || a.CacheDuration != "1h" {
		t.Errorf("unexpected adapter: %+v", a)
	}
	if len(a.SensorThings.StationBlacklist) != 1 || a.SensorThings.ExternalLinkBase != g.ExternalLinkBase {
		t.Errorf("sensorthings filters not carried over: %+v", a.SensorThings)
	}

	pc := validConfig().Groups[0]
	pc.Rewrite = &RewriteConfig{From: "ept.json", To: "tileset.json"}
	a, err = pc.ToAdapter()
	if err != nil {
		t.Fatalf("ToAdapter: %v", err)
	}
	if a.Rewrite == nil || a.Rewrite.From != "ept.json" {
		t.Errorf("custom rewrite lost: %+v", a.Rewrite)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GEOCATALOG_TEST_ADDR", "valkey:6379")

	got := string(expandEnvVars([]byte("a: ${GEOCATALOG_TEST_ADDR}\nb: ${GEOCATALOG_TEST_UNSET:-fallback}\n")))
	want := "a: valkey:6379\nb: fallback\n"
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	data := []byte(`http:
  port: ${GEOCATALOG_TEST_PORT:-9090}
database:
  driver: memory
groups:
  - name: bim
    kind: bim
    url: https://arches.example.org/
    graph_id: g
    asset_field_id: a
    name_field_id: n
    position_field_id: p
`)
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Groups) != 1 || cfg.Groups[0].PositionFieldID != "p" {
		t.Errorf("unexpected groups: %+v", cfg.Groups)
	}
}
