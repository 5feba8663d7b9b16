package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/event"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/provider"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
)

// SyncResult is returned by a successful product sync.
type SyncResult struct {
	Status        string    `json:"status"`
	Count         int       `json:"count"`
	Removed       int       `json:"removed"`
	SyncStartedAt time.Time `json:"sync_started_at"`
	SyncDuration  string    `json:"sync_duration"`
}

// SyncService coordinates the product sync across configured fulfillment
// providers: single-flight via the persisted state row, stale-run
// recovery at read time, and structured error context on failure.
type SyncService struct {
	states   repository.SyncStateStore
	products repository.ProductRepository
	registry *provider.Registry
	producer *event.Producer
	logger   *slog.Logger

	// now is swappable so tests can control the staleness clock.
	now func() time.Time
}

// NewSyncService creates a sync service.
func NewSyncService(
	states repository.SyncStateStore,
	products repository.ProductRepository,
	registry *provider.Registry,
	producer *event.Producer,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		states:   states,
		products: products,
		registry: registry,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// providerSyncError carries the failure context from one provider's sync
// leg into the aggregate error record.
type providerSyncError struct {
	provider string
	stage    string
	err      error
}

func (e *providerSyncError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.provider, e.stage, e.err)
}

// Sync runs one product sync. It fails fast with SYNC_IN_PROGRESS while a
// non-stale run is active; a stale "running" row is overwritten. Provider
// legs run fully in parallel, and a failure in one leg does not roll back
// products already upserted by the others.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	now := s.now()

	stored, err := s.states.Get(ctx, domain.SyncStateKeyProducts)
	if err != nil {
		return nil, apperrors.SyncFailed("failed to read sync state", map[string]any{
			"stage": domain.SyncStageSetStatus,
		})
	}
	// A running row with no start time is corrupt; fall through and start a
	// fresh run rather than blocking on it.
	if stored.Status == domain.SyncStatusRunning && stored.SyncStartedAt != nil && !stored.IsStale(now) {
		elapsed := now.Sub(*stored.SyncStartedAt)
		return nil, apperrors.SyncInProgress("a product sync is already running", map[string]any{
			"sync_started_at": stored.SyncStartedAt,
			"duration":        elapsed.String(),
		})
	}

	running := domain.SyncState{
		Status:        domain.SyncStatusRunning,
		SyncStartedAt: &now,
		LastSuccessAt: stored.LastSuccessAt,
		LastErrorAt:   stored.LastErrorAt,
		UpdatedAt:     now,
	}
	if err := s.states.Set(ctx, domain.SyncStateKeyProducts, running); err != nil {
		return nil, apperrors.SyncFailed("failed to mark sync as running", map[string]any{
			"stage": domain.SyncStageSetStatus,
		})
	}

	count, removed, syncErr := s.syncAllProviders(ctx)
	finished := s.now()
	duration := finished.Sub(now)

	if syncErr != nil {
		s.recordFailure(ctx, running, finished, duration, syncErr)
		return nil, s.classifySyncError(syncErr, duration)
	}

	idle := domain.SyncState{
		Status:        domain.SyncStatusIdle,
		LastSuccessAt: &finished,
		LastErrorAt:   stored.LastErrorAt,
		UpdatedAt:     finished,
	}
	if err := s.states.Set(ctx, domain.SyncStateKeyProducts, idle); err != nil {
		// Products are synced but the state row still says running; the
		// staleness check will surface it as an error until the next run.
		s.logger.ErrorContext(ctx, "failed to finalize sync state",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.SyncFailed("sync completed but state finalization failed", map[string]any{
			"stage":    domain.SyncStageFinalize,
			"duration": duration.String(),
		})
	}

	if s.producer != nil {
		if err := s.producer.PublishProductsSynced(ctx, event.ProductsSyncedData{
			Count:    count,
			Removed:  removed,
			Duration: duration.String(),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to publish products.synced event",
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product sync completed",
		slog.Int("count", count),
		slog.Int("removed", removed),
		slog.Duration("duration", duration),
	)
	return &SyncResult{
		Status:        domain.SyncStatusIdle,
		Count:         count,
		Removed:       removed,
		SyncStartedAt: now,
		SyncDuration:  duration.String(),
	}, nil
}

// syncAllProviders fetches and upserts every provider's catalog in
// parallel. Providers without a catalog (the manual client) contribute
// nothing. The first failure is reported; other legs still run to
// completion so their progress is preserved.
func (s *SyncService) syncAllProviders(ctx context.Context) (count, removed int, firstErr error) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, client := range s.registry.All() {
		wg.Add(1)
		go func(client provider.Client) {
			defer wg.Done()
			c, r, err := s.syncProvider(ctx, client)
			mu.Lock()
			defer mu.Unlock()
			count += c
			removed += r
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}(client)
	}
	wg.Wait()
	return count, removed, firstErr
}

func (s *SyncService) syncProvider(ctx context.Context, client provider.Client) (count, removed int, err error) {
	products, err := client.GetProducts(ctx)
	if err != nil {
		return 0, 0, &providerSyncError{provider: client.Name(), stage: domain.SyncStageFetchProducts, err: err}
	}
	if len(products) == 0 {
		return 0, 0, nil
	}

	keep := make([]string, 0, len(products))
	for i := range products {
		n, err := s.products.Upsert(ctx, &products[i])
		if err != nil {
			return count, 0, &providerSyncError{provider: client.Name(), stage: domain.SyncStageUpsert, err: err}
		}
		count += n
		keep = append(keep, products[i].ID)
	}

	removed, err = s.products.DeleteMissing(ctx, client.Name(), keep)
	if err != nil {
		return count, 0, &providerSyncError{provider: client.Name(), stage: domain.SyncStageUpsert, err: err}
	}
	return count, removed, nil
}

func (s *SyncService) recordFailure(ctx context.Context, running domain.SyncState, at time.Time, duration time.Duration, syncErr error) {
	stage := domain.SyncStageUnknown
	providerName := ""
	var pse *providerSyncError
	if errors.As(syncErr, &pse) {
		stage = pse.stage
		providerName = pse.provider
	}

	errData := map[string]any{
		"stage":    stage,
		"duration": duration.String(),
	}
	if pse != nil {
		errData["provider"] = providerName
		errData["error_type"] = provider.ClassifyError(pse.err)
		if ra := provider.RetryAfter(pse.err); ra != "" {
			errData["retry_after"] = ra
		}
	}

	failed := domain.SyncState{
		Status:        domain.SyncStatusError,
		SyncStartedAt: running.SyncStartedAt,
		LastSuccessAt: running.LastSuccessAt,
		LastErrorAt:   &at,
		ErrorMessage:  syncErr.Error(),
		ErrorData:     errData,
		UpdatedAt:     at,
	}
	if err := s.states.Set(ctx, domain.SyncStateKeyProducts, failed); err != nil {
		s.logger.ErrorContext(ctx, "failed to record sync failure",
			slog.String("error", err.Error()),
		)
	}

	s.logger.ErrorContext(ctx, "product sync failed",
		slog.String("stage", stage),
		slog.String("provider", providerName),
		slog.Duration("duration", duration),
		slog.String("error", syncErr.Error()),
	)
}

func (s *SyncService) classifySyncError(syncErr error, duration time.Duration) error {
	var pse *providerSyncError
	if errors.As(syncErr, &pse) {
		errType := provider.ClassifyError(pse.err)
		data := map[string]any{
			"stage":      pse.stage,
			"provider":   pse.provider,
			"error_type": errType,
			"duration":   duration.String(),
		}
		if ra := provider.RetryAfter(pse.err); ra != "" {
			data["retry_after"] = ra
		}
		if errType == provider.ErrTypeTimeout {
			return apperrors.SyncTimeout(syncErr.Error(), data)
		}
		if pse.stage == domain.SyncStageFetchProducts {
			return apperrors.SyncProviderError(syncErr.Error(), data)
		}
		return apperrors.SyncFailed(syncErr.Error(), data)
	}
	return apperrors.SyncFailed(syncErr.Error(), map[string]any{
		"stage":    domain.SyncStageUnknown,
		"duration": duration.String(),
	})
}

// SyncStatus is the read model for the sync status endpoint.
type SyncStatus struct {
	Status        string         `json:"status"`
	SyncStartedAt *time.Time     `json:"sync_started_at,omitempty"`
	LastSuccessAt *time.Time     `json:"last_success_at,omitempty"`
	LastErrorAt   *time.Time     `json:"last_error_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ErrorData     map[string]any `json:"error_data,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// GetSyncStatus reads the persisted state and applies the staleness
// correction. The stored row is not repaired here; the next Sync call
// re-evaluates it.
func (s *SyncService) GetSyncStatus(ctx context.Context) (*SyncStatus, error) {
	stored, err := s.states.Get(ctx, domain.SyncStateKeyProducts)
	if err != nil {
		return nil, fmt.Errorf("read sync state: %w", err)
	}

	effective := domain.EffectiveStatus(stored, s.now())
	return &SyncStatus{
		Status:        effective.Status,
		SyncStartedAt: effective.SyncStartedAt,
		LastSuccessAt: effective.LastSuccessAt,
		LastErrorAt:   effective.LastErrorAt,
		ErrorMessage:  effective.ErrorMessage,
		ErrorData:     effective.ErrorData,
		UpdatedAt:     effective.UpdatedAt,
	}, nil
}
