package catalog

import (
	"time"

	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
)

// Kind selects the remote source of a group.
type Kind string

// Supported group kinds.
const (
	KindPointCloud   Kind = "pointcloud"
	KindBIM          Kind = "bim"
	KindSensorThings Kind = "sensorthings"
)

// Rewrite replaces a trailing From in asset URLs with To.
type Rewrite struct {
	From string
	To   string
}

// Group describes one catalog source.
type Group struct {
	Name string
	Kind Kind
	URL  string

	// Arches groups.
	GraphID       string
	AssetField    string
	NameField     string
	PositionField string
	ScaleField    string
	DefaultScale  float64
	Rewrite       *Rewrite
	SkipProbe     bool

	ItemProperties map[string]any
	CacheDuration  string
	ForceProxy     bool

	// SensorThings groups.
	DatastreamIDs       []string
	ObservedPropertyIDs []string
	StationWhitelist    []string
	StationBlacklist    []string
	ExternalLinkBase    string
}

func (g *Group) toAdapter() (adapter.Config, error) {
	c := adapter.Config{
		Group:           g.Name,
		Kind:            adapter.Kind(g.Kind),
		BaseURL:         g.URL,
		GraphID:         g.GraphID,
		AssetFieldID:    g.AssetField,
		NameFieldID:     g.NameField,
		PositionFieldID: g.PositionField,
		ScaleFieldID:    g.ScaleField,
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

// Origin is the placement of a model item.
type Origin struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

// Item is a materialized catalog item.
type Item struct {
	ID         string         `json:"id"`
	Group      string         `json:"group"`
	Type       string         `json:"type"`
	URL        string         `json:"url"`
	Name       string         `json:"name"`
	Origin     *Origin        `json:"origin,omitempty"`
	Scale      *float64       `json:"scale,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func itemFromDomain(it *item.Item) Item {
	out := Item{
		ID:         it.ID(),
		Group:      it.Group(),
		Type:       string(it.Type()),
		URL:        it.URL(),
		Name:       it.Name(),
		Scale:      it.Scale(),
		Properties: it.Properties(),
	}
	if o := it.Origin(); o != nil {
		out.Origin = &Origin{Longitude: o.Longitude, Latitude: o.Latitude, Height: o.Height}
	}
	return out
}

// Summary describes one load.
type Summary struct {
	LoadID     string         `json:"load_id"`
	Group      string         `json:"group"`
	Kind       string         `json:"kind"`
	Status     string         `json:"status"` // ready, failed, cancelled
	Records    int            `json:"records"`
	Items      int            `json:"items"`
	Skipped    map[string]int `json:"skipped,omitempty"` // by reason
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Error      string         `json:"error,omitempty"`
}

// Duration returns how long the load took.
func (s Summary) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

func summaryFromDomain(sum *outcome.Summary) Summary {
	out := Summary{
		LoadID:     sum.LoadID,
		Group:      sum.Group,
		Kind:       sum.Kind,
		Status:     string(sum.Status),
		Records:    sum.Records,
		Items:      sum.Items,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Error:      sum.Error,
	}
	if len(sum.Skipped) > 0 {
		out.Skipped = make(map[string]int, len(sum.Skipped))
		for reason, n := range sum.Skipped {
			out.Skipped[string(reason)] = n
		}
	}
	return out
}
