package probecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/db"
)

const (
	present = "1"
	absent  = "0"
)

// store is the consumer interface for the probe cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Prober checks whether an asset URL exists.
type Prober interface {
	Probe(ctx context.Context, url string) (bool, error)
}

// CachedProber caches definitive probe outcomes (present or absent) in a key-value store.
// Probes that fail to complete are never cached.
type CachedProber struct {
	inner      Prober
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Prober,
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProber{
		inner:      inner,
		store:      s,
		keyPrefix:  keyPrefix + "probe:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Probe returns a cached outcome or probes through the inner prober.
func (c *CachedProber) Probe(ctx context.Context, url string) (bool, error) {
	key := c.cacheKey(url)

	if ok, hit := c.getFromCache(ctx, key); hit {
		c.incCache("hit")
		return ok, nil
	}

	c.incCache("miss")

	ok, err := c.inner.Probe(ctx, url)
	if err != nil {
		return false, fmt.Errorf("probe asset: %w", err)
	}

	c.putToCache(ctx, key, ok)
	return ok, nil
}

func (c *CachedProber) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedProber) cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedProber) getFromCache(ctx context.Context, key string) (ok, hit bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached probe", zap.String("key", key), zap.Error(err))
		}
		return false, false
	}
	switch string(data) {
	case present:
		return true, true
	case absent:
		return false, true
	default:
		c.logger.Warn("Unexpected cached probe value", zap.String("key", key), zap.ByteString("value", data))
		return false, false
	}
}

func (c *CachedProber) putToCache(ctx context.Context, key string, ok bool) {
	v := absent
	if ok {
		v = present
	}
	if err := c.store.SetWithTTL(ctx, key, []byte(v), c.ttl); err != nil {
		c.logger.Warn("Failed to cache probe", zap.String("key", key), zap.Error(err))
	}
}
