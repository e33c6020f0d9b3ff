package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vhu/portal/internal/logger"
	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/storage"
)

const (
	janitorIdle     = "idle"
	janitorScanning = "scanning"
	janitorDeleting = "deleting"
)

// janitorBatchSize bounds one sweep. Leftovers are picked up next run.
const janitorBatchSize = 500

// Janitor periodically deletes assets that have had no owner for longer
// than the grace period. The grace period must outlast the gap between
// staging a file and saving the record that references it.
type Janitor struct {
	assets   repository.AssetRepository
	store    storage.Store
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	log      *slog.Logger

	mu      sync.Mutex
	state   string
	running atomic.Bool

	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewJanitor(assets repository.AssetRepository, store storage.Store, interval, grace time.Duration) *Janitor {
	return &Janitor{
		assets:   assets,
		store:    store,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		log:      logger.Component("janitor"),
		state:    janitorIdle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs a sweep every interval until ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return
	}
	j.started = true
	j.mu.Unlock()

	j.log.Info("janitor started", "interval", j.interval, "grace_period", j.grace)

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-j.stop:
				return
			case <-ticker.C:
				_, _ = j.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })

	j.mu.Lock()
	started := j.started
	j.mu.Unlock()
	if started {
		<-j.done
	}
	j.log.Info("janitor stopped")
}

// Sweep deletes expired orphans and returns how many were removed. A sweep
// requested while another is running returns immediately. One failing
// candidate never aborts the rest.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	if !j.running.CompareAndSwap(false, true) {
		j.log.Debug("sweep already in progress, skipping")
		return 0, nil
	}
	defer j.running.Store(false)
	defer j.setState(janitorIdle)

	start := time.Now()
	cutoff := j.now().Add(-j.grace)

	j.setState(janitorScanning)
	candidates, err := j.assets.Orphans(cutoff, janitorBatchSize)
	if err != nil {
		j.log.Error("failed to list orphaned assets", "error", err)
		metrics.RecordJanitorRun(time.Since(start), 0, 0, err)
		return 0, err
	}

	j.setState(janitorDeleting)
	deleted, failed := 0, 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		// Re-adopted since the scan
		current, err := j.assets.ByID(candidate.ID)
		if err != nil {
			if err != repository.ErrAssetNotFound {
				j.log.Error("failed to re-check orphan", "asset_id", candidate.ID, "error", err)
				failed++
			}
			continue
		}
		state := current.State(storage.StagingFolder)
		if state == model.AssetOwned {
			continue
		}

		// The record goes first: once it is gone no promotion can claim the
		// file, while a promotion that won the race keeps both
		err = j.assets.DeleteUnowned(current.ID)
		if err == repository.ErrAssetNotFound {
			continue
		}
		if err != nil {
			j.log.Error("failed to delete orphan record",
				"asset_id", current.ID,
				"storage_key", current.StorageKey,
				"error", err,
			)
			failed++
			continue
		}

		j.log.Debug("deleted orphan", "asset_id", current.ID, "storage_key", current.StorageKey, "state", state)
		j.store.Delete(ctx, current.StorageKey)
		deleted++
	}

	metrics.RecordJanitorRun(time.Since(start), deleted, failed, nil)
	if deleted > 0 || failed > 0 {
		j.log.Info("janitor sweep finished",
			"deleted", deleted,
			"failed", failed,
			"candidates", len(candidates),
			"duration", time.Since(start),
		)
	}
	return deleted, nil
}

func (j *Janitor) setState(state string) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
}

func (j *Janitor) currentState() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}
