package load

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
)

// Searcher fetches and unwraps one search envelope.
type Searcher interface {
	Search(ctx context.Context, kind, searchURL string) ([]json.RawMessage, error)
}

// Prober checks whether an asset URL exists.
type Prober interface {
	Probe(ctx context.Context, url string) (present bool, err error)
}

// StationSource produces sensor results for a sensorthings group.
type StationSource interface {
	Stations(ctx context.Context, cfg adapter.Config) ([]outcome.Result, error)
}

// URLProxy routes outbound URLs through the CORS/caching proxy.
type URLProxy interface {
	URL(raw, cacheDuration string, force bool) string
}

// ItemWriter receives materialized items. Calls come from a single goroutine.
type ItemWriter interface {
	Append(ctx context.Context, group string, it item.Item) error
}
