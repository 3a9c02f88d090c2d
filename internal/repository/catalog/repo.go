package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/kailas-cloud/geocatalog/internal/db"
	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HLen(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo stores group items (one hash per group, field = item id) and load summaries.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a catalog repository. keyPrefix namespaces every key, e.g. "geocatalog:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Reset removes every item of a group.
func (r *Repo) Reset(ctx context.Context, group string) error {
	if err := r.store.Del(ctx, r.itemsKey(group)); err != nil {
		return fmt.Errorf("reset group %s: %w", group, err)
	}
	return nil
}

// Append stores one item. Re-appending an item with the same id overwrites it.
func (r *Repo) Append(ctx context.Context, group string, it item.Item) error {
	data, err := json.Marshal(toDTO(&it))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	if err := r.store.HSet(ctx, r.itemsKey(group), map[string]string{it.ID(): string(data)}); err != nil {
		return fmt.Errorf("hset %s: %w", group, err)
	}
	return nil
}

// Count returns the number of stored items of a group.
func (r *Repo) Count(ctx context.Context, group string) (int, error) {
	n, err := r.store.HLen(ctx, r.itemsKey(group))
	if err != nil {
		return 0, fmt.Errorf("count group %s: %w", group, err)
	}
	return int(n), nil
}

// List returns every item of a group ordered by name, then id.
func (r *Repo) List(ctx context.Context, group string) ([]item.Item, error) {
	fields, err := r.store.HGetAll(ctx, r.itemsKey(group))
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", group, err)
	}
	items := make([]item.Item, 0, len(fields))
	for id, raw := range fields {
		var d itemDTO
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", id, err)
		}
		if d.ID == "" {
			d.ID = id
		}
		items = append(items, d.toDomain())
	}
	slices.SortFunc(items, func(a, b item.Item) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID(), b.ID()))
	})
	return items, nil
}

// Page returns up to limit items starting at cursor (an offset into List order).
// nextCursor is empty on the last page.
func (r *Repo) Page(ctx context.Context, group, cursor string, limit int) ([]item.Item, string, error) {
	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", cursor, domain.ErrInvalidRequest)
		}
		offset = parsed
	}
	if limit <= 0 {
		return nil, "", fmt.Errorf("limit must be positive: %w", domain.ErrInvalidRequest)
	}

	all, err := r.List(ctx, group)
	if err != nil {
		return nil, "", err
	}
	if offset >= len(all) {
		return []item.Item{}, "", nil
	}
	end := min(offset+limit, len(all))
	var next string
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return all[offset:end], next, nil
}

// SaveSummary stores the latest load summary of a group.
func (r *Repo) SaveSummary(ctx context.Context, sum outcome.Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := r.store.Set(ctx, r.statusKey(sum.Group), data); err != nil {
		return fmt.Errorf("set status %s: %w", sum.Group, err)
	}
	return nil
}

// GetSummary returns the latest load summary of a group, or domain.ErrNotFound.
func (r *Repo) GetSummary(ctx context.Context, group string) (outcome.Summary, error) {
	data, err := r.store.Get(ctx, r.statusKey(group))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return outcome.Summary{}, fmt.Errorf("summary %s: %w", group, domain.ErrNotFound)
		}
		return outcome.Summary{}, fmt.Errorf("get status %s: %w", group, err)
	}
	var sum outcome.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return outcome.Summary{}, fmt.Errorf("decode summary %s: %w", group, err)
	}
	return sum, nil
}

func (r *Repo) itemsKey(group string) string {
	return r.keyPrefix + "group:" + group + ":items"
}

func (r *Repo) statusKey(group string) string {
	return r.keyPrefix + "group:" + group + ":status"
}
