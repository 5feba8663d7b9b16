package domain

import (
	"time"
)

// Sync state status values.
const (
	SyncStatusIdle    = "idle"
	SyncStatusRunning = "running"
	SyncStatusError   = "error"
)

// SyncStaleThreshold is how long a running sync may go without completing
// before readers treat it as failed. The correction happens lazily at read
// time; nothing cancels the in-flight run.
const SyncStaleThreshold = 5 * time.Minute

// Sync failure stage classification recorded in SyncState.ErrorData.
const (
	SyncStageSetStatus     = "SET_STATUS"
	SyncStageFetchProducts = "FETCH_PRODUCTS"
	SyncStageUpsert        = "UPSERT"
	SyncStageFinalize      = "FINALIZE"
	SyncStageUnknown       = "UNKNOWN"
)

// SyncStateKeyProducts is the logical resource name for the product sync.
const SyncStateKeyProducts = "products"

// SyncState is the persisted record of the most recent sync run for one
// logical resource.
type SyncState struct {
	Status        string         `json:"status"`
	SyncStartedAt *time.Time     `json:"sync_started_at,omitempty"`
	LastSuccessAt *time.Time     `json:"last_success_at,omitempty"`
	LastErrorAt   *time.Time     `json:"last_error_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ErrorData     map[string]any `json:"error_data,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsStale reports whether a running sync has exceeded the staleness
// threshold at the given instant. Non-running states are never stale.
func (s SyncState) IsStale(now time.Time) bool {
	if s.Status != SyncStatusRunning || s.SyncStartedAt == nil {
		return false
	}
	return now.Sub(*s.SyncStartedAt) > SyncStaleThreshold
}

// EffectiveStatus applies the lazy staleness correction every reader must
// perform: a stored state of running whose start time is more than the
// threshold ago is reported as error, without mutating the stored row.
// The returned state echoes the original SyncStartedAt so callers can see
// when the stuck run began.
func EffectiveStatus(stored SyncState, now time.Time) SyncState {
	if !stored.IsStale(now) {
		return stored
	}
	corrected := stored
	corrected.Status = SyncStatusError
	corrected.ErrorMessage = "sync timed out"
	errData := map[string]any{
		"stage":    SyncStageUnknown,
		"duration": now.Sub(*stored.SyncStartedAt).String(),
	}
	for k, v := range stored.ErrorData {
		errData[k] = v
	}
	corrected.ErrorData = errData
	return corrected
}
