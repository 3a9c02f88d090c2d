package catalog

import (
	"context"

	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/usecase/load"
)

// Repository defines the storage contract for group items and load summaries.
type Repository interface {
	Reset(ctx context.Context, group string) error
	Append(ctx context.Context, group string, it item.Item) error
	Page(ctx context.Context, group, cursor string, limit int) ([]item.Item, string, error)
	Count(ctx context.Context, group string) (int, error)
	SaveSummary(ctx context.Context, sum outcome.Summary) error
	GetSummary(ctx context.Context, group string) (outcome.Summary, error)
}

// Loader runs one load cycle of a group.
type Loader interface {
	LoadWithID(ctx context.Context, loadID string, cfg adapter.Config, w load.ItemWriter) (outcome.Summary, error)
}
