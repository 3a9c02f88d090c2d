package proxy

import (
	"net/url"
	"strings"
)

// Proxy decorates outbound URLs with a CORS/caching proxy prefix.
// The zero value never proxies.
type Proxy struct {
	baseURL         string
	proxyAllDomains bool
	domains         []string
}

// Config holds the proxy settings.
type Config struct {
	BaseURL         string
	ProxyAllDomains bool
	Domains         []string
}

// New creates a Proxy. An empty BaseURL disables proxying.
func New(cfg Config) *Proxy {
	base := cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	domains := make([]string, 0, len(cfg.Domains))
	for _, d := range cfg.Domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	return &Proxy{baseURL: base, proxyAllDomains: cfg.ProxyAllDomains, domains: domains}
}

// ShouldUseProxy reports whether raw would be proxied without force.
func (p *Proxy) ShouldUseProxy(raw string) bool {
	if !p.canProxy(raw) {
		return false
	}
	if p.proxyAllDomains {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range p.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// URL returns raw routed through the proxy when it applies (or force is set),
// otherwise raw unchanged. cacheDuration is a proxy duration string such as "1d".
func (p *Proxy) URL(raw, cacheDuration string, force bool) string {
	if p == nil || !p.canProxy(raw) {
		return raw
	}
	if !force && !p.ShouldUseProxy(raw) {
		return raw
	}
	if cacheDuration == "" {
		return p.baseURL + raw
	}
	return p.baseURL + "_" + cacheDuration + "/" + raw
}

// canProxy excludes data URIs, relative URLs and already proxied URLs.
func (p *Proxy) canProxy(raw string) bool {
	if p == nil || p.baseURL == "" || raw == "" {
		return false
	}
	if strings.HasPrefix(raw, p.baseURL) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
