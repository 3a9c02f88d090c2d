package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/geocatalog/internal/db"
)

func TestHashOperations(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	n, _ := s.HLen(ctx, "h")
	if n != 2 {
		t.Errorf("HLen = %d, want 2", n)
	}

	m, _ := s.HGetAll(ctx, "h")
	m["a"] = "mutated"
	again, _ := s.HGetAll(ctx, "h")
	if again["a"] != "1" {
		t.Error("HGetAll must return a copy")
	}

	_ = s.HDel(ctx, "h", "a", "b")
	if ok, _ := s.Exists(ctx, "h"); ok {
		t.Error("empty hash must not exist")
	}
}

func TestKV_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
	if v, err := s.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after expiry, got %v", err)
	}
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Set(ctx, "k", []byte("v"))
	_ = s.Del(ctx, "k")
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}
