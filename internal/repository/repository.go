package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dmayman/shopify-notion-sync/internal/models"
)

// ErrLockLost is returned by generation-guarded writes when the caller's lock
// generation no longer matches the stored one, meaning a newer run overrode a
// stale lock. The caller must discard its remaining writes.
var ErrLockLost = errors.New("sync lock lost to a newer run")

type SyncStatistics struct {
	LastSyncAt        *time.Time `json:"last_sync"`
	ResumePoint       *time.Time `json:"last_processed_updated_at"`
	TotalSyncedOrders int64      `json:"total_synced_orders"`
	TotalNotionPages  int64      `json:"total_notion_pages"`
	FailedOrdersCount int64      `json:"failed_orders_count"`
	FailedOrders      []string   `json:"failed_orders"`
	SyncInProgress    bool       `json:"sync_in_progress"`
	SyncStartedAt     *time.Time `json:"sync_started_at"`
}

// SyncRepository is the durable sync state store. Reads return errors on
// backing faults; callers must not treat a fault as "nothing synced yet".
type SyncRepository interface {
	// GetSyncState returns the singleton state row, creating it with
	// defaults on first use.
	GetSyncState(ctx context.Context) (*models.SyncState, error)

	// AcquireLock attempts to take the sync lock at now. A held lock is
	// overridable when acquired before staleBefore. On success it returns
	// the new lock generation.
	AcquireLock(ctx context.Context, now time.Time, staleBefore time.Time) (generation int64, acquired bool, err error)

	// ReleaseLock clears the lock if generation still matches.
	ReleaseLock(ctx context.Context, generation int64) error

	// CompleteSync records at as the last completed sync, guarded by
	// generation.
	CompleteSync(ctx context.Context, generation int64, at time.Time) error

	// AdvanceResumePoint sets the resume point to ts, guarded by
	// generation. The caller is responsible for only passing values that
	// keep the resume point monotonic.
	AdvanceResumePoint(ctx context.Context, generation int64, ts time.Time) error

	// UpsertSyncedOrder replaces the page id list and source timestamp for
	// orderID and deletes any failed record for it, in one transaction.
	UpsertSyncedOrder(ctx context.Context, orderID string, pageIDs []string, sourceUpdatedAt *time.Time) error

	// GetSyncedOrderPageIDs returns the ordered page ids for orderID, or
	// nil when the order has never been synced.
	GetSyncedOrderPageIDs(ctx context.Context, orderID string) ([]string, error)

	// MarkOrderFailed records a failed attempt, inserting with retry count
	// 1 or incrementing an existing record.
	MarkOrderFailed(ctx context.Context, orderID string, message string) error

	// ListFailedOrderIDs returns failed order ids ordered by failure time.
	ListFailedOrderIDs(ctx context.Context) ([]string, error)

	Statistics(ctx context.Context) (SyncStatistics, error)

	// ResetAll wipes synced and failed orders and resets the state row to
	// defaults. The lock generation is preserved so fencing stays
	// monotonic across resets.
	ResetAll(ctx context.Context) error
}
