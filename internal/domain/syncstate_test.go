package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus_RunningNotStale(t *testing.T) {
	now := time.Now()
	started := now.Add(-2 * time.Minute)
	stored := SyncState{Status: SyncStatusRunning, SyncStartedAt: &started}

	got := EffectiveStatus(stored, now)
	assert.Equal(t, SyncStatusRunning, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestEffectiveStatus_RunningStale(t *testing.T) {
	now := time.Now()
	started := now.Add(-301 * time.Second)
	stored := SyncState{Status: SyncStatusRunning, SyncStartedAt: &started}

	got := EffectiveStatus(stored, now)
	assert.Equal(t, SyncStatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "timed out")
	// The original start time is echoed so callers can see when the stuck
	// run began.
	assert.Equal(t, &started, got.SyncStartedAt)
	assert.Equal(t, SyncStageUnknown, got.ErrorData["stage"])
}

func TestEffectiveStatus_ExactThresholdNotStale(t *testing.T) {
	now := time.Now()
	started := now.Add(-SyncStaleThreshold)
	stored := SyncState{Status: SyncStatusRunning, SyncStartedAt: &started}

	got := EffectiveStatus(stored, now)
	assert.Equal(t, SyncStatusRunning, got.Status)
}

func TestEffectiveStatus_DoesNotMutateStored(t *testing.T) {
	now := time.Now()
	started := now.Add(-10 * time.Minute)
	stored := SyncState{Status: SyncStatusRunning, SyncStartedAt: &started}

	_ = EffectiveStatus(stored, now)
	assert.Equal(t, SyncStatusRunning, stored.Status)
	assert.Empty(t, stored.ErrorMessage)
}

func TestEffectiveStatus_IdleAndErrorPassThrough(t *testing.T) {
	now := time.Now()
	old := now.Add(-time.Hour)
	for _, status := range []string{SyncStatusIdle, SyncStatusError} {
		stored := SyncState{Status: status, SyncStartedAt: &old}
		got := EffectiveStatus(stored, now)
		assert.Equal(t, status, got.Status)
	}
}

func TestIsStale_RunningWithoutStartTime(t *testing.T) {
	stored := SyncState{Status: SyncStatusRunning}
	assert.False(t, stored.IsStale(time.Now()))
}
