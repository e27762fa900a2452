package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmayman/shopify-notion-sync/internal/client/notion"
	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
	"github.com/dmayman/shopify-notion-sync/internal/repository"
	"github.com/dmayman/shopify-notion-sync/internal/transform"
)

const (
	defaultLimit       = 50
	maxLimit           = 1000
	defaultLockTimeout = 10 * time.Minute
)

// OrderSource fetches raw orders from the commerce platform.
type OrderSource interface {
	FetchOrders(ctx context.Context, q shopify.OrdersQuery) ([]shopify.Order, error)
	TestConnection(ctx context.Context) (string, error)
}

// PageWriter creates and archives destination pages.
type PageWriter interface {
	CreatePage(ctx context.Context, props notion.Properties) (notion.Page, error)
	ArchivePage(ctx context.Context, pageID string) error
	TestConnection(ctx context.Context) (string, error)
}

type SyncService struct {
	Repo        repository.SyncRepository
	Shopify     OrderSource
	Notion      PageWriter
	Limiter     *rate.Limiter
	Logger      *zap.Logger
	StoreHandle string
	LockTimeout time.Duration
	Limit       int
}

type RunOptions struct {
	Mode    SyncMode
	Limit   int
	OrderID string
}

const (
	StatusSuccess     = "success"
	StatusBusy        = "busy"
	StatusUnavailable = "unavailable"
	StatusSuperseded  = "superseded"
	StatusError       = "error"
)

type RunSummary struct {
	Status          string    `json:"status"`
	SyncType        string    `json:"sync_type"`
	Message         string    `json:"message,omitempty"`
	TotalOrders     int       `json:"total_orders"`
	ProcessedOrders int       `json:"processed_orders"`
	SkippedOrders   int       `json:"skipped_orders"`
	CreatedPages    int       `json:"created_pages"`
	Errors          []string  `json:"errors"`
	Actions         []string  `json:"actions,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Run executes one sync invocation. Busy, unavailable, and superseded
// outcomes are defined results, not errors; an error return means the run
// itself faulted unexpectedly.
func (s *SyncService) Run(ctx context.Context, opts RunOptions) (RunSummary, error) {
	summary := RunSummary{
		Status:    StatusSuccess,
		Errors:    []string{},
		Timestamp: time.Now().UTC(),
	}

	if opts.Mode == ModeSingle {
		if opts.OrderID == "" {
			return summary, fmt.Errorf("single mode requires an order id")
		}
		strategy := SelectStrategy(SelectorInput{Mode: ModeSingle, OrderID: opts.OrderID})
		summary.SyncType = string(strategy.Type)
		summary.Actions = strategy.Actions
		summary, err := s.runSingle(ctx, opts.OrderID, summary)
		if err != nil {
			summary.Status = StatusError
			summary.Message = err.Error()
		}
		return summary, err
	}

	state, err := s.Repo.GetSyncState(ctx)
	if err != nil {
		s.logWarn("sync state unavailable", zap.Error(err))
		summary.Status = StatusUnavailable
		summary.SyncType = string(StrategyUnavailable)
		summary.Message = "sync state unavailable, retry later"
		return summary, nil
	}
	failedIDs, err := s.Repo.ListFailedOrderIDs(ctx)
	if err != nil {
		s.logWarn("failed order list unavailable", zap.Error(err))
		summary.Status = StatusUnavailable
		summary.SyncType = string(StrategyUnavailable)
		summary.Message = "sync state unavailable, retry later"
		return summary, nil
	}

	strategy := SelectStrategy(SelectorInput{
		StateAvailable: true,
		LastSyncAt:     state.LastSyncAt,
		ResumePoint:    state.ResumePoint,
		FailedOrderIDs: failedIDs,
		Mode:           opts.Mode,
	})
	summary.SyncType = string(strategy.Type)
	summary.Actions = strategy.Actions

	now := time.Now().UTC()
	generation, acquired, err := s.Repo.AcquireLock(ctx, now, now.Add(-s.lockTimeout()))
	if err != nil {
		return summary, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		summary.Status = StatusBusy
		summary.Message = "sync already in progress"
		return summary, nil
	}
	s.logInfo("sync lock acquired",
		zap.Int64("generation", generation),
		zap.String("sync_type", summary.SyncType))

	runErr := s.runLocked(ctx, generation, strategy, failedIDs, opts.Limit, state.ResumePoint, &summary)

	// The lock is released on every exit path. A release failure is logged
	// and never replaces the run's own error.
	if relErr := s.Repo.ReleaseLock(ctx, generation); relErr != nil && !errors.Is(relErr, repository.ErrLockLost) {
		s.logWarn("sync lock release failed", zap.Error(relErr))
	}

	if runErr != nil {
		if errors.Is(runErr, repository.ErrLockLost) {
			summary.Status = StatusSuperseded
			summary.Message = "lock lost to a newer run, remaining writes discarded"
			s.logWarn("sync superseded", zap.Int64("generation", generation))
			return summary, nil
		}
		summary.Status = StatusError
		summary.Message = runErr.Error()
		return summary, runErr
	}
	return summary, nil
}

func (s *SyncService) runLocked(ctx context.Context, generation int64, strategy Strategy, failedIDs []string, limit int, resumePoint *time.Time, summary *RunSummary) error {
	var maxUpdated time.Time
	processed := make(map[string]bool)

	// Phase a: retry failed orders, fetched by id set. The below-resume
	// skip does not apply here; these orders were already seen once.
	if strategy.RetryFailed && len(failedIDs) > 0 {
		orders, err := s.Shopify.FetchOrders(ctx, shopify.OrdersQuery{
			Limit: len(failedIDs),
			Names: failedIDs,
		})
		if err != nil {
			return fmt.Errorf("fetch failed orders: %w", err)
		}
		summary.TotalOrders += len(orders)
		for _, order := range orders {
			if order.UpdatedAt.After(maxUpdated) {
				maxUpdated = order.UpdatedAt
			}
			processed[order.Name] = true
			s.processInto(ctx, order, summary)
		}
	}

	// Phase b: fetch by the strategy's update-time filter, oldest first.
	orders, err := s.Shopify.FetchOrders(ctx, shopify.OrdersQuery{
		Limit:        s.normalizeLimit(limit),
		UpdatedAfter: strategy.SyncFrom,
	})
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	summary.TotalOrders += len(orders)
	for _, order := range orders {
		// Skipped candidates still advance the watermark; the fetch
		// window may overlap the previous run's.
		if order.UpdatedAt.After(maxUpdated) {
			maxUpdated = order.UpdatedAt
		}
		if processed[order.Name] {
			continue
		}
		if resumePoint != nil && order.UpdatedAt.Before(*resumePoint) {
			summary.SkippedOrders++
			continue
		}
		processed[order.Name] = true
		s.processInto(ctx, order, summary)
	}

	// The resume point moves once per batch, after everything settled, so
	// a mid-batch crash re-processes from the pre-batch position.
	if !maxUpdated.IsZero() && (resumePoint == nil || maxUpdated.After(*resumePoint)) {
		if err := s.Repo.AdvanceResumePoint(ctx, generation, maxUpdated); err != nil {
			return err
		}
	}
	return s.Repo.CompleteSync(ctx, generation, time.Now().UTC())
}

func (s *SyncService) runSingle(ctx context.Context, orderID string, summary RunSummary) (RunSummary, error) {
	orders, err := s.Shopify.FetchOrders(ctx, shopify.OrdersQuery{
		Limit: 1,
		Names: []string{orderID},
	})
	if err != nil {
		return summary, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	if len(orders) == 0 {
		return summary, fmt.Errorf("order %s not found", orderID)
	}
	summary.TotalOrders = 1
	s.processInto(ctx, orders[0], &summary)
	return summary, nil
}

// processInto runs the idempotent per-order upsert and folds the outcome into
// the summary. A single order's failure never aborts the batch.
func (s *SyncService) processInto(ctx context.Context, order shopify.Order, summary *RunSummary) {
	created, err := s.processOrder(ctx, order)
	if err != nil {
		s.logWarn("order sync failed", zap.String("order_id", order.Name), zap.Error(err))
		if failErr := s.Repo.MarkOrderFailed(ctx, order.Name, err.Error()); failErr != nil {
			s.logWarn("failed to record order failure", zap.String("order_id", order.Name), zap.Error(failErr))
		}
		summary.Errors = append(summary.Errors, order.Name)
		return
	}
	summary.ProcessedOrders++
	summary.CreatedPages += created
}

func (s *SyncService) processOrder(ctx context.Context, order shopify.Order) (int, error) {
	existing, err := s.Repo.GetSyncedOrderPageIDs(ctx, order.Name)
	if err != nil {
		return 0, fmt.Errorf("look up synced pages: %w", err)
	}
	for _, pageID := range existing {
		if err := s.wait(ctx); err != nil {
			return 0, err
		}
		// Best effort: a stale page that cannot be archived must not
		// block creating its replacement.
		if err := s.Notion.ArchivePage(ctx, pageID); err != nil {
			s.logWarn("archive of stale page failed",
				zap.String("order_id", order.Name),
				zap.String("page_id", pageID),
				zap.Error(err))
		}
	}

	normalized := transform.FromShopify(order, s.StoreHandle)

	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	parent, err := s.Notion.CreatePage(ctx, parentProperties(normalized))
	if err != nil {
		return 0, fmt.Errorf("create parent page: %w", err)
	}
	pageIDs := []string{parent.ID}

	if normalized.MultiItem() {
		for idx, item := range normalized.LineItems {
			if err := s.wait(ctx); err != nil {
				return 0, err
			}
			child, err := s.Notion.CreatePage(ctx, childProperties(normalized, item, idx+1, parent.ID))
			if err != nil {
				return 0, fmt.Errorf("create line item page %d: %w", idx+1, err)
			}
			pageIDs = append(pageIDs, child.ID)
		}
	}

	updatedAt := order.UpdatedAt
	if err := s.Repo.UpsertSyncedOrder(ctx, order.Name, pageIDs, &updatedAt); err != nil {
		return 0, fmt.Errorf("record synced order: %w", err)
	}
	return len(pageIDs), nil
}

func (s *SyncService) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}

func (s *SyncService) normalizeLimit(limit int) int {
	if limit < 1 {
		if s.Limit > 0 {
			return s.Limit
		}
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (s *SyncService) lockTimeout() time.Duration {
	if s.LockTimeout > 0 {
		return s.LockTimeout
	}
	return defaultLockTimeout
}

func (s *SyncService) logInfo(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields...)
	}
}

func (s *SyncService) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}
