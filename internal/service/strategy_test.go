package service

import (
	"testing"
	"time"
)

func TestSelectStrategy(t *testing.T) {
	lastSync := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resume := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		in          SelectorInput
		wantType    StrategyType
		wantFrom    *time.Time
		wantRetry   bool
		wantOrderID string
	}{
		{
			name:     "explicit initial ignores state",
			in:       SelectorInput{Mode: ModeInitial, StateAvailable: true, LastSyncAt: &lastSync},
			wantType: StrategyInitial,
		},
		{
			name:        "single mode with order id",
			in:          SelectorInput{Mode: ModeSingle, OrderID: "#1001", StateAvailable: true},
			wantType:    StrategySingle,
			wantOrderID: "#1001",
		},
		{
			name:     "single mode without order id falls through",
			in:       SelectorInput{Mode: ModeSingle, StateAvailable: true},
			wantType: StrategyInitial,
		},
		{
			name:     "state unavailable",
			in:       SelectorInput{Mode: ModeAuto, StateAvailable: false},
			wantType: StrategyUnavailable,
		},
		{
			name:     "never synced",
			in:       SelectorInput{Mode: ModeAuto, StateAvailable: true},
			wantType: StrategyInitial,
		},
		{
			name:     "smart prefers resume point",
			in:       SelectorInput{Mode: ModeAuto, StateAvailable: true, LastSyncAt: &lastSync, ResumePoint: &resume},
			wantType: StrategySmart,
			wantFrom: &resume,
		},
		{
			name:     "smart falls back to last sync",
			in:       SelectorInput{Mode: ModeAuto, StateAvailable: true, LastSyncAt: &lastSync},
			wantType: StrategySmart,
			wantFrom: &lastSync,
		},
		{
			name:      "smart flags failed retries",
			in:        SelectorInput{Mode: ModeAuto, StateAvailable: true, LastSyncAt: &lastSync, FailedOrderIDs: []string{"#9", "#10"}},
			wantType:  StrategySmart,
			wantFrom:  &lastSync,
			wantRetry: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectStrategy(tt.in)
			if got.Type != tt.wantType {
				t.Fatalf("Type=%s want=%s", got.Type, tt.wantType)
			}
			if got.RetryFailed != tt.wantRetry {
				t.Fatalf("RetryFailed=%v want=%v", got.RetryFailed, tt.wantRetry)
			}
			if got.OrderID != tt.wantOrderID {
				t.Fatalf("OrderID=%q want=%q", got.OrderID, tt.wantOrderID)
			}
			switch {
			case tt.wantFrom == nil && got.SyncFrom != nil:
				t.Fatalf("SyncFrom=%v want=nil", got.SyncFrom)
			case tt.wantFrom != nil && (got.SyncFrom == nil || !got.SyncFrom.Equal(*tt.wantFrom)):
				t.Fatalf("SyncFrom=%v want=%v", got.SyncFrom, tt.wantFrom)
			}
			if got.Type != StrategyUnavailable && len(got.Actions) == 0 {
				t.Fatalf("Actions empty for %s", got.Type)
			}
		})
	}
}
