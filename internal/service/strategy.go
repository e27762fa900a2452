package service

import (
	"fmt"
	"time"
)

type SyncMode string

const (
	ModeAuto    SyncMode = "auto"
	ModeInitial SyncMode = "initial"
	ModeSingle  SyncMode = "single"
)

type StrategyType string

const (
	// StrategyInitial backfills without an update-time lower bound.
	StrategyInitial StrategyType = "initial"
	// StrategySmart retries failed orders, then fetches incrementally from
	// the resume point.
	StrategySmart StrategyType = "smart"
	// StrategySingle processes exactly one order, bypassing the lock and
	// the resume point.
	StrategySingle StrategyType = "single"
	// StrategyUnavailable means the state store could not be read; the
	// caller should retry later rather than assume a first run.
	StrategyUnavailable StrategyType = "unavailable"
)

// SelectorInput is a snapshot of sync state plus the caller's request.
type SelectorInput struct {
	StateAvailable bool
	LastSyncAt     *time.Time
	ResumePoint    *time.Time
	FailedOrderIDs []string
	Mode           SyncMode
	OrderID        string
}

// Strategy is the selector's decision. Actions is a human-readable trail for
// observability only; nothing downstream branches on it.
type Strategy struct {
	Type        StrategyType
	SyncFrom    *time.Time
	RetryFailed bool
	OrderID     string
	Actions     []string
}

// SelectStrategy decides what the next run should do. Pure function of its
// input.
func SelectStrategy(in SelectorInput) Strategy {
	if in.Mode == ModeInitial {
		return Strategy{
			Type:    StrategyInitial,
			Actions: []string{"full sync of recent orders (explicitly requested)"},
		}
	}
	if in.Mode == ModeSingle && in.OrderID != "" {
		return Strategy{
			Type:    StrategySingle,
			OrderID: in.OrderID,
			Actions: []string{fmt.Sprintf("re-sync order %s only (no lock, no resume point update)", in.OrderID)},
		}
	}

	if !in.StateAvailable {
		return Strategy{
			Type:    StrategyUnavailable,
			Actions: []string{"sync state unavailable, retry later"},
		}
	}
	if in.LastSyncAt == nil {
		return Strategy{
			Type:    StrategyInitial,
			Actions: []string{"first sync ever, full sync of recent orders"},
		}
	}

	out := Strategy{
		Type:        StrategySmart,
		RetryFailed: len(in.FailedOrderIDs) > 0,
		SyncFrom:    in.ResumePoint,
	}
	if out.SyncFrom == nil {
		out.SyncFrom = in.LastSyncAt
	}
	if out.RetryFailed {
		out.Actions = append(out.Actions, fmt.Sprintf("retry %d previously failed orders", len(in.FailedOrderIDs)))
	}
	out.Actions = append(out.Actions, fmt.Sprintf("sync orders updated since %s", out.SyncFrom.UTC().Format(time.RFC3339)))
	return out
}
