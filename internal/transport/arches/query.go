package arches

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const searchPath = "search/resources"

// URLProxy routes outbound URLs through the CORS/caching proxy.
type URLProxy interface {
	URL(raw, cacheDuration string, force bool) string
}

// Query describes one resource search against an Arches server.
type Query struct {
	BaseURL       string
	GraphID       string
	CacheDuration string
	ForceProxy    bool
}

type resourceTypeFilter struct {
	GraphID  string `json:"graphid"`
	Inverted bool   `json:"inverted"`
}

// BuildSearchURL returns the proxied search URL for q. Any query string or
// fragment on the base URL is dropped. p may be nil.
func BuildSearchURL(q Query, p URLProxy) (string, error) {
	u, err := url.Parse(q.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + searchPath
	u.RawPath = ""

	filter, err := json.Marshal([]resourceTypeFilter{{GraphID: q.GraphID}})
	if err != nil {
		return "", fmt.Errorf("encode resource filter: %w", err)
	}

	// Parameter order is fixed, so url.Values.Encode (sorted) is not used.
	raw := u.String() + "?format=tilecsv&precision=6&resource-type-filter=" +
		url.QueryEscape(string(filter)) + "&tiles=true"
	if p == nil {
		return raw, nil
	}
	return p.URL(raw, q.CacheDuration, q.ForceProxy), nil
}
