package materialize

import "context"

// Prober checks whether an asset URL exists. present=false with a nil error means
// the asset is confirmed missing; a non-nil error means the probe did not complete.
type Prober interface {
	Probe(ctx context.Context, url string) (present bool, err error)
}

// URLProxy routes outbound URLs through the CORS/caching proxy.
type URLProxy interface {
	URL(raw, cacheDuration string, force bool) string
}
