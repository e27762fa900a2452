package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmayman/shopify-notion-sync/internal/client/notion"
	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
	"github.com/dmayman/shopify-notion-sync/internal/models"
	"github.com/dmayman/shopify-notion-sync/internal/repository"
)

// stubRepo is a test-only in-memory implementation of
// repository.SyncRepository with the same locking and fencing semantics as
// the Postgres store.
type stubRepo struct {
	lastSync   *time.Time
	resume     *time.Time
	lockHeld   bool
	lockAt     *time.Time
	generation int64

	synced    map[string][]string
	syncedAt  map[string]time.Time
	failed    map[string]int
	failedSeq []string

	stateErr      error
	failedListErr error
	resets        int

	// onUpsert runs inside UpsertSyncedOrder, letting tests interleave a
	// competing lock acquisition mid-batch.
	onUpsert func()
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		synced:   map[string][]string{},
		syncedAt: map[string]time.Time{},
		failed:   map[string]int{},
	}
}

func (r *stubRepo) guard(generation int64) error {
	if generation != r.generation {
		return repository.ErrLockLost
	}
	return nil
}

func (r *stubRepo) GetSyncState(ctx context.Context) (*models.SyncState, error) {
	if r.stateErr != nil {
		return nil, r.stateErr
	}
	return &models.SyncState{
		ID:             1,
		LastSyncAt:     r.lastSync,
		ResumePoint:    r.resume,
		LockHeld:       r.lockHeld,
		LockAcquiredAt: r.lockAt,
		LockGeneration: r.generation,
	}, nil
}

func (r *stubRepo) AcquireLock(ctx context.Context, now time.Time, staleBefore time.Time) (int64, bool, error) {
	if r.stateErr != nil {
		return 0, false, r.stateErr
	}
	if r.lockHeld && r.lockAt != nil && !r.lockAt.Before(staleBefore) {
		return 0, false, nil
	}
	r.generation++
	r.lockHeld = true
	at := now
	r.lockAt = &at
	return r.generation, true, nil
}

func (r *stubRepo) ReleaseLock(ctx context.Context, generation int64) error {
	if err := r.guard(generation); err != nil {
		return err
	}
	r.lockHeld = false
	r.lockAt = nil
	return nil
}

func (r *stubRepo) CompleteSync(ctx context.Context, generation int64, at time.Time) error {
	if err := r.guard(generation); err != nil {
		return err
	}
	t := at
	r.lastSync = &t
	return nil
}

func (r *stubRepo) AdvanceResumePoint(ctx context.Context, generation int64, ts time.Time) error {
	if err := r.guard(generation); err != nil {
		return err
	}
	t := ts
	r.resume = &t
	return nil
}

func (r *stubRepo) UpsertSyncedOrder(ctx context.Context, orderID string, pageIDs []string, sourceUpdatedAt *time.Time) error {
	if r.onUpsert != nil {
		r.onUpsert()
	}
	r.synced[orderID] = append([]string{}, pageIDs...)
	if sourceUpdatedAt != nil {
		r.syncedAt[orderID] = *sourceUpdatedAt
	}
	if _, ok := r.failed[orderID]; ok {
		delete(r.failed, orderID)
		kept := r.failedSeq[:0]
		for _, id := range r.failedSeq {
			if id != orderID {
				kept = append(kept, id)
			}
		}
		r.failedSeq = kept
	}
	return nil
}

func (r *stubRepo) GetSyncedOrderPageIDs(ctx context.Context, orderID string) ([]string, error) {
	ids, ok := r.synced[orderID]
	if !ok {
		return nil, nil
	}
	return append([]string{}, ids...), nil
}

func (r *stubRepo) MarkOrderFailed(ctx context.Context, orderID string, message string) error {
	if _, ok := r.failed[orderID]; !ok {
		r.failedSeq = append(r.failedSeq, orderID)
	}
	r.failed[orderID]++
	return nil
}

func (r *stubRepo) ListFailedOrderIDs(ctx context.Context) ([]string, error) {
	if r.failedListErr != nil {
		return nil, r.failedListErr
	}
	return append([]string{}, r.failedSeq...), nil
}

func (r *stubRepo) Statistics(ctx context.Context) (repository.SyncStatistics, error) {
	if r.stateErr != nil {
		return repository.SyncStatistics{}, r.stateErr
	}
	var pages int64
	for _, ids := range r.synced {
		pages += int64(len(ids))
	}
	failed, _ := r.ListFailedOrderIDs(ctx)
	return repository.SyncStatistics{
		LastSyncAt:        r.lastSync,
		ResumePoint:       r.resume,
		TotalSyncedOrders: int64(len(r.synced)),
		TotalNotionPages:  pages,
		FailedOrdersCount: int64(len(r.failed)),
		FailedOrders:      failed,
		SyncInProgress:    r.lockHeld,
		SyncStartedAt:     r.lockAt,
	}, nil
}

func (r *stubRepo) ResetAll(ctx context.Context) error {
	r.synced = map[string][]string{}
	r.syncedAt = map[string]time.Time{}
	r.failed = map[string]int{}
	r.failedSeq = nil
	r.lastSync = nil
	r.resume = nil
	r.lockHeld = false
	r.lockAt = nil
	r.resets++
	return nil
}

// stubShopify serves canned orders, applying the same name and update-time
// filters the GraphQL client would.
type stubShopify struct {
	orders   []shopify.Order
	fetchErr error
	connErr  error
	queries  []shopify.OrdersQuery

	// ignoreFilter disables the update-time filter, emulating a stale
	// search index that returns already-seen orders.
	ignoreFilter bool
}

func (s *stubShopify) FetchOrders(ctx context.Context, q shopify.OrdersQuery) ([]shopify.Order, error) {
	s.queries = append(s.queries, q)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []shopify.Order
	for _, order := range s.orders {
		if len(q.Names) > 0 {
			for _, name := range q.Names {
				if order.Name == name {
					out = append(out, order)
					break
				}
			}
			continue
		}
		if !s.ignoreFilter && q.UpdatedAfter != nil && order.UpdatedAt.Before(*q.UpdatedAfter) {
			continue
		}
		out = append(out, order)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *stubShopify) TestConnection(ctx context.Context) (string, error) {
	if s.connErr != nil {
		return "", s.connErr
	}
	return "Stub Shop", nil
}

// stubNotion records created and archived pages, handing out sequential ids.
type stubNotion struct {
	nextID     int
	created    []notion.Properties
	archived   []string
	failTitles map[string]bool
	archiveErr error
	connErr    error
}

func (n *stubNotion) CreatePage(ctx context.Context, props notion.Properties) (notion.Page, error) {
	if n.failTitles[pageTitle(props)] {
		return notion.Page{}, errors.New("create failed")
	}
	n.nextID++
	n.created = append(n.created, props)
	return notion.Page{ID: fmt.Sprintf("page-%d", n.nextID)}, nil
}

func (n *stubNotion) ArchivePage(ctx context.Context, pageID string) error {
	if n.archiveErr != nil {
		return n.archiveErr
	}
	n.archived = append(n.archived, pageID)
	return nil
}

func (n *stubNotion) TestConnection(ctx context.Context) (string, error) {
	if n.connErr != nil {
		return "", n.connErr
	}
	return "Stub Database", nil
}

// pageTitle digs the plain title string out of a page payload.
func pageTitle(props notion.Properties) string {
	field, ok := props["Order ID"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := field["title"].([]any)
	if !ok || len(parts) == 0 {
		return ""
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return ""
	}
	text, ok := part["text"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := text["content"].(string)
	return content
}
