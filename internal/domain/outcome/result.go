package outcome

import "github.com/kailas-cloud/geocatalog/internal/domain/item"

// SkipReason explains why a record produced no item.
type SkipReason string

// Skip reasons. None of them is an error at the load level.
const (
	SkipNoTiles      SkipReason = "no_tiles"
	SkipNoAsset      SkipReason = "no_asset"
	SkipAssetAbsent  SkipReason = "asset_absent"
	SkipProbeFailed  SkipReason = "probe_failed"
	SkipNoPosition   SkipReason = "no_position"
	SkipInvalidField SkipReason = "invalid_field"
	SkipCancelled    SkipReason = "cancelled"
)

// Result is the outcome of materializing one record: an item or a skip.
type Result struct {
	item   item.Item
	ok     bool
	reason SkipReason
	err    error
}

// NewItem creates a materialized result.
func NewItem(it item.Item) Result { return Result{item: it, ok: true} }

// NewSkip creates a skipped result. cause may be nil.
func NewSkip(reason SkipReason, cause error) Result {
	return Result{reason: reason, err: cause}
}

// Item returns the materialized item and whether there is one.
func (r Result) Item() (item.Item, bool) { return r.item, r.ok }

// Skipped reports whether the record was skipped.
func (r Result) Skipped() bool { return !r.ok }

// Reason returns the skip reason, empty for materialized results.
func (r Result) Reason() SkipReason { return r.reason }

// Err returns the cause of a skip, if any.
func (r Result) Err() error { return r.err }
