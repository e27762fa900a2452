package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmayman/shopify-notion-sync/internal/models"
	"github.com/dmayman/shopify-notion-sync/internal/repository"
)

const stateRowID = 1

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) GetSyncState(ctx context.Context) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	state := models.SyncState{ID: stateRowID}
	if err := s.db.WithContext(ctx).
		Where(models.SyncState{ID: stateRowID}).
		FirstOrCreate(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) AcquireLock(ctx context.Context, now time.Time, staleBefore time.Time) (int64, bool, error) {
	if s == nil || s.db == nil {
		return 0, false, fmt.Errorf("store not initialized")
	}
	if _, err := s.GetSyncState(ctx); err != nil {
		return 0, false, err
	}

	var generation int64
	acquired := false
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.SyncState{}).
			Where("id = ?", stateRowID).
			Where("lock_held = ? OR lock_acquired_at IS NULL OR lock_acquired_at < ?", false, staleBefore).
			Updates(map[string]any{
				"lock_held":        true,
				"lock_acquired_at": now,
				"lock_generation":  gorm.Expr("lock_generation + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		acquired = true
		var state models.SyncState
		if err := tx.First(&state, "id = ?", stateRowID).Error; err != nil {
			return err
		}
		generation = state.LockGeneration
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return generation, acquired, nil
}

func (s *Store) ReleaseLock(ctx context.Context, generation int64) error {
	return s.guardedUpdate(ctx, generation, map[string]any{
		"lock_held":        false,
		"lock_acquired_at": nil,
	})
}

func (s *Store) CompleteSync(ctx context.Context, generation int64, at time.Time) error {
	return s.guardedUpdate(ctx, generation, map[string]any{
		"last_sync_at": at,
	})
}

func (s *Store) AdvanceResumePoint(ctx context.Context, generation int64, ts time.Time) error {
	return s.guardedUpdate(ctx, generation, map[string]any{
		"resume_point": ts,
	})
}

// guardedUpdate applies values to the state row only while the caller still
// holds the lock generation it acquired.
func (s *Store) guardedUpdate(ctx context.Context, generation int64, values map[string]any) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	res := s.db.WithContext(ctx).Model(&models.SyncState{}).
		Where("id = ? AND lock_generation = ?", stateRowID, generation).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrLockLost
	}
	return nil
}

func (s *Store) UpsertSyncedOrder(ctx context.Context, orderID string, pageIDs []string, sourceUpdatedAt *time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if pageIDs == nil {
		pageIDs = []string{}
	}
	raw, err := json.Marshal(pageIDs)
	if err != nil {
		return err
	}
	item := models.SyncedOrder{
		OrderID:         orderID,
		NotionPageIDs:   raw,
		SourceUpdatedAt: sourceUpdatedAt,
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"notion_page_ids",
				"source_updated_at",
				"updated_at",
			}),
		}).Create(&item).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", orderID).Delete(&models.FailedOrder{}).Error
	})
}

func (s *Store) GetSyncedOrderPageIDs(ctx context.Context, orderID string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	var item models.SyncedOrder
	err := s.db.WithContext(ctx).First(&item, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(item.NotionPageIDs, &ids); err != nil {
		// Legacy rows stored a single bare id.
		return []string{string(item.NotionPageIDs)}, nil
	}
	return ids, nil
}

func (s *Store) MarkOrderFailed(ctx context.Context, orderID string, message string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	var msg *string
	if message != "" {
		msg = &message
	}
	item := models.FailedOrder{
		OrderID:      orderID,
		ErrorMessage: msg,
		FailedAt:     time.Now().UTC(),
		RetryCount:   1,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"error_message": msg,
			"failed_at":     item.FailedAt,
			"retry_count":   gorm.Expr("failed_orders.retry_count + 1"),
		}),
	}).Create(&item).Error
}

func (s *Store) ListFailedOrderIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.FailedOrder{}).
		Order("failed_at asc").
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Statistics(ctx context.Context) (repository.SyncStatistics, error) {
	var stats repository.SyncStatistics
	state, err := s.GetSyncState(ctx)
	if err != nil {
		return stats, err
	}
	stats.LastSyncAt = state.LastSyncAt
	stats.ResumePoint = state.ResumePoint
	stats.SyncInProgress = state.LockHeld
	stats.SyncStartedAt = state.LockAcquiredAt

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.SyncedOrder{}).Count(&stats.TotalSyncedOrders).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.SyncedOrder{}).
		Select("COALESCE(SUM(jsonb_array_length(notion_page_ids)), 0)").
		Scan(&stats.TotalNotionPages).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.FailedOrder{}).Count(&stats.FailedOrdersCount).Error; err != nil {
		return stats, err
	}
	failed, err := s.ListFailedOrderIDs(ctx)
	if err != nil {
		return stats, err
	}
	stats.FailedOrders = failed
	return stats, nil
}

func (s *Store) ResetAll(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SyncedOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.FailedOrder{}).Error; err != nil {
			return err
		}
		// Lock generation survives the reset so stale fencing tokens from
		// before the wipe can never match again.
		return tx.Model(&models.SyncState{}).
			Where("id = ?", stateRowID).
			Updates(map[string]any{
				"last_sync_at":     nil,
				"resume_point":     nil,
				"lock_held":        false,
				"lock_acquired_at": nil,
			}).Error
	})
}
