package catalog

import "github.com/kailas-cloud/geocatalog/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration = domain.ErrConfiguration
	ErrFetch         = domain.ErrFetch
)

// ConfigurationError names the group setting that prevented a load.
type ConfigurationError = domain.ConfigurationError

// FetchError carries the URL and, when known, the HTTP status of a failed request.
type FetchError = domain.FetchError
