package service

import (
	"context"
	"fmt"

	"github.com/dmayman/shopify-notion-sync/internal/repository"
)

type ConnectionResult struct {
	Shopify bool     `json:"shopify"`
	Notion  bool     `json:"notion"`
	Errors  []string `json:"errors"`
}

// TestConnections probes both external systems independently; one failing
// does not prevent testing the other.
func (s *SyncService) TestConnections(ctx context.Context) ConnectionResult {
	result := ConnectionResult{Errors: []string{}}

	if name, err := s.Shopify.TestConnection(ctx); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("shopify connection failed: %v", err))
	} else {
		result.Shopify = true
		s.logInfo("shopify connection ok: " + name)
	}

	if title, err := s.Notion.TestConnection(ctx); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("notion connection failed: %v", err))
	} else {
		result.Notion = true
		s.logInfo("notion connection ok: " + title)
	}
	return result
}

type StatusReport struct {
	Statistics   repository.SyncStatistics `json:"statistics"`
	NextStrategy StrategyType              `json:"next_strategy"`
	NextActions  []string                  `json:"next_actions"`
}

// Status returns aggregate statistics plus a preview of what the next auto
// run would do.
func (s *SyncService) Status(ctx context.Context) (StatusReport, error) {
	stats, err := s.Repo.Statistics(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	strategy := SelectStrategy(SelectorInput{
		StateAvailable: true,
		LastSyncAt:     stats.LastSyncAt,
		ResumePoint:    stats.ResumePoint,
		FailedOrderIDs: stats.FailedOrders,
		Mode:           ModeAuto,
	})
	return StatusReport{
		Statistics:   stats,
		NextStrategy: strategy.Type,
		NextActions:  strategy.Actions,
	}, nil
}

type ResetReport struct {
	Before repository.SyncStatistics `json:"before"`
	After  repository.SyncStatistics `json:"after"`
}

// Reset wipes all sync bookkeeping. Irreversible; the report carries
// before/after snapshots so the caller can see what was destroyed.
func (s *SyncService) Reset(ctx context.Context) (ResetReport, error) {
	before, err := s.Repo.Statistics(ctx)
	if err != nil {
		return ResetReport{}, err
	}
	if err := s.Repo.ResetAll(ctx); err != nil {
		return ResetReport{}, err
	}
	after, err := s.Repo.Statistics(ctx)
	if err != nil {
		return ResetReport{}, err
	}
	s.logInfo("sync state reset")
	return ResetReport{Before: before, After: after}, nil
}
