package probecache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/db"
)

type mockProber struct {
	present bool
	err     error
	calls   int
}

func (m *mockProber) Probe(_ context.Context, _ string) (bool, error) {
	m.calls++
	return m.present, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedProber(t *testing.T, inner *mockProber) (*CachedProber, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, "geocatalog:", time.Hour, nil, zap.NewNop()), ms
}
