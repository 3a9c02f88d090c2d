package materialize

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/geo"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
)

// --- Mocks ---

type mockProber struct {
	mu      sync.Mutex
	present bool
	err     error
	urls    []string
}

func (m *mockProber) Probe(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	return m.present, m.err
}

type mockProxy struct{}

func (mockProxy) URL(raw, cacheDuration string, _ bool) string {
	return "/proxy/_" + cacheDuration + "/" + raw
}

// --- Helpers ---

func pointCloudConfig(t *testing.T) adapter.Config {
	t.Helper()
	c, err := adapter.New(adapter.Config{
		Group:        "clouds",
		Kind:         adapter.KindPointCloud,
		BaseURL:      "http://arches.example.org/",
		GraphID:      "9b591814-c0f2-11e8-9c8c-0242ac120004",
		AssetFieldID: "urlField",
		NameFieldID:  "nameField",
	})
	if err != nil {
		t.Fatalf("adapter.New: %v", err)
	}
	return c
}

func bimConfig(t *testing.T) adapter.Config {
	t.Helper()
	c, err := adapter.New(adapter.Config{
		Group:           "bim",
		Kind:            adapter.KindBIM,
		BaseURL:         "http://arches.example.org/",
		GraphID:         "g",
		AssetFieldID:    "urlField",
		NameFieldID:     "nameField",
		PositionFieldID: "posField",
		ScaleFieldID:    "scaleField",
		DefaultScale:    1.5,
		ItemProperties:  map[string]any{"opacity": 0.5},
	})
	if err != nil {
		t.Fatalf("adapter.New: %v", err)
	}
	return c
}

func hit(data string) json.RawMessage {
	return json.RawMessage(`{"_source":{"tiles":[{"data":` + data + `}]}}`)
}

const pointGeoJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[12.5,41.9]}}]}`

func mustItem(t *testing.T, res outcome.Result) item.Item {
	t.Helper()
	it, ok := res.Item()
	if !ok {
		t.Fatalf("expected item, got skip %q (%v)", res.Reason(), res.Err())
	}
	return it
}

// --- Tests ---

func TestMaterialize_PointCloud(t *testing.T) {
	p := &mockProber{present: true}
	svc, err := New(pointCloudConfig(t), p, mockProxy{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := svc.Materialize(context.Background(), hit(`{"urlField":"http://x/cloud.js","nameField":"Station 1"}`))
	it := mustItem(t, res)

	if it.Name() != "Station 1" {
		t.Errorf("Name() = %q", it.Name())
	}
	if it.URL() != "http://x/3dtiles/tileset.json" {
		t.Errorf("URL() = %q", it.URL())
	}
	if it.Type() != item.Type3DTiles {
		t.Errorf("Type() = %q", it.Type())
	}
	if it.Scale() != nil || it.Origin() != nil {
		t.Error("pointcloud without position/scale fields must not set them")
	}
	want := map[string]any{"clampToGround": true, "pointSize": 2.0}
	if diff := cmp.Diff(want, it.Properties()); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
	if len(p.urls) != 1 || p.urls[0] != "/proxy/_1d/http://x/3dtiles/tileset.json" {
		t.Errorf("probed %v", p.urls)
	}
}

func TestMaterialize_Skips(t *testing.T) {
	tests := []struct {
		name   string
		raw    json.RawMessage
		prober *mockProber
		want   outcome.SkipReason
	}{
		{"empty tiles", json.RawMessage(`{"_source":{"tiles":[]}}`), &mockProber{present: true}, outcome.SkipNoTiles},
		{"missing asset", hit(`{"nameField":"A"}`), &mockProber{present: true}, outcome.SkipNoAsset},
		{"asset not a string", hit(`{"urlField":{"en":"x"}}`), &mockProber{present: true}, outcome.SkipNoAsset},
		{"probe 404", hit(`{"urlField":"http://x/cloud.js"}`), &mockProber{present: false}, outcome.SkipAssetAbsent},
		{"probe failed", hit(`{"urlField":"http://x/cloud.js"}`), &mockProber{err: errors.New("dial tcp: refused")}, outcome.SkipProbeFailed},
		{"undecodable hit", json.RawMessage(`"nope"`), &mockProber{present: true}, outcome.SkipInvalidField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := New(pointCloudConfig(t), tc.prober, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			res := svc.Materialize(context.Background(), tc.raw)
			if !res.Skipped() {
				t.Fatal("expected skip")
			}
			if res.Reason() != tc.want {
				t.Errorf("Reason() = %q, want %q", res.Reason(), tc.want)
			}
		})
	}
}

func TestMaterialize_NoProbeBeforeTiles(t *testing.T) {
	p := &mockProber{present: true}
	svc, _ := New(pointCloudConfig(t), p, nil)
	svc.Materialize(context.Background(), json.RawMessage(`{"_source":{"tiles":[]}}`))
	if len(p.urls) != 0 {
		t.Errorf("prober must not be called for empty tiles, got %v", p.urls)
	}
}

func TestMaterialize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc, _ := New(pointCloudConfig(t), &mockProber{err: context.Canceled}, nil)

	res := svc.Materialize(ctx, hit(`{"urlField":"http://x/cloud.js"}`))
	if res.Reason() != outcome.SkipCancelled {
		t.Errorf("Reason() = %q, want cancelled", res.Reason())
	}
}

func TestMaterialize_NonNotFoundStatusIsPresent(t *testing.T) {
	// The prober reports any non-404 completion (including 5xx) as present.
	svc, _ := New(pointCloudConfig(t), &mockProber{present: true}, nil)
	res := svc.Materialize(context.Background(), hit(`{"urlField":"http://x/cloud.js","nameField":"A"}`))
	mustItem(t, res)
}

func TestMaterialize_SkipProbe(t *testing.T) {
	cfg := pointCloudConfig(t)
	cfg.SkipProbe = true
	svc, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustItem(t, svc.Materialize(context.Background(), hit(`{"urlField":"http://x/tileset.json"}`)))
}

func TestNew_RequiresProber(t *testing.T) {
	if _, err := New(pointCloudConfig(t), nil, nil); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestMaterialize_BIM(t *testing.T) {
	svc, _ := New(bimConfig(t), &mockProber{present: true}, nil)

	res := svc.Materialize(context.Background(),
		hit(`{"urlField":"http://x/model.gltf","nameField":"Chiesa","posField":`+pointGeoJSON+`,"scaleField":2}`))
	it := mustItem(t, res)

	if diff := cmp.Diff(&geo.Origin{Longitude: 12.5, Latitude: 41.9, Height: 0}, it.Origin()); diff != "" {
		t.Errorf("origin mismatch (-want +got):\n%s", diff)
	}
	if it.Scale() == nil || *it.Scale() != 2 {
		t.Errorf("Scale() = %v, want 2", it.Scale())
	}
	want := map[string]any{"upAxis": "Y", "opacity": 0.5}
	if diff := cmp.Diff(want, it.Properties()); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
	if it.URL() != "http://x/model.gltf" {
		t.Errorf("bim URL must not be rewritten: %q", it.URL())
	}
}

func TestMaterialize_ScaleResolution(t *testing.T) {
	tests := []struct {
		name  string
		scale string
		want  float64
	}{
		{"absent", ``, 1.5},
		{"null", `,"scaleField":null`, 1.5},
		{"zero", `,"scaleField":0`, 1.5},
		{"empty string", `,"scaleField":""`, 1.5},
		{"false", `,"scaleField":false`, 1.5},
		{"number", `,"scaleField":3.25`, 3.25},
		{"numeric string", `,"scaleField":"0.5"`, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := New(bimConfig(t), &mockProber{present: true}, nil)
			res := svc.Materialize(context.Background(),
				hit(`{"urlField":"http://x/m.gltf","posField":`+pointGeoJSON+tc.scale+`}`))
			it := mustItem(t, res)
			if *it.Scale() != tc.want {
				t.Errorf("Scale() = %v, want %v", *it.Scale(), tc.want)
			}
		})
	}
}

func TestMaterialize_BIMFieldFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
		want outcome.SkipReason
	}{
		{"no position", `{"urlField":"http://x/m.gltf"}`, outcome.SkipNoPosition},
		{"malformed geojson", `{"urlField":"http://x/m.gltf","posField":{"type":"FeatureCollection","features":[]}}`, outcome.SkipInvalidField},
		{"non-numeric scale", `{"urlField":"http://x/m.gltf","posField":` + pointGeoJSON + `,"scaleField":"big"}`, outcome.SkipInvalidField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := New(bimConfig(t), &mockProber{present: true}, nil)
			res := svc.Materialize(context.Background(), hit(tc.data))
			if res.Reason() != tc.want {
				t.Errorf("Reason() = %q, want %q", res.Reason(), tc.want)
			}
		})
	}
}

func TestMaterialize_NonStringName(t *testing.T) {
	svc, _ := New(pointCloudConfig(t), &mockProber{present: true}, nil)
	it := mustItem(t, svc.Materialize(context.Background(), hit(`{"urlField":"http://x/cloud.js","nameField":42}`)))
	if it.Name() != "42" {
		t.Errorf("Name() = %q", it.Name())
	}
}
