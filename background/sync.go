// Package background contains services that run independently of direct user
// actions. The sync service keeps the locally cached collections close to the
// server state by re-fetching them on a fixed interval, so a long-lived watch
// surface converges even when changes happen elsewhere.
package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher is one refreshable collection.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// refreshFunc adapts a plain function to the Refresher interface.
type refreshFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (r refreshFunc) Name() string                      { return r.name }
func (r refreshFunc) Refresh(ctx context.Context) error { return r.fn(ctx) }

// NewRefresher wraps a named refresh function.
func NewRefresher(name string, fn func(ctx context.Context) error) Refresher {
	return refreshFunc{name: name, fn: fn}
}

const (
	// numSyncWorkers is the number of concurrent workers running refreshes.
	numSyncWorkers = 2

	// refreshTimeout bounds a single refresh call.
	refreshTimeout = 10 * time.Second
)

// StartSyncService launches the periodic refresher. Each tick dispatches every
// registered collection to a small worker pool; a collection whose previous
// refresh is still running is skipped for that tick rather than queued up.
// Closing stopChan shuts the service down; the returned channel closes once
// all workers have drained.
func StartSyncService(interval time.Duration, refreshers []Refresher, logger *zap.Logger, stopChan <-chan struct{}) <-chan struct{} {
	jobs := make(chan Refresher, len(refreshers))
	done := make(chan struct{})

	var workersWg sync.WaitGroup
	workersWg.Add(numSyncWorkers)
	for i := 0; i < numSyncWorkers; i++ {
		go func() {
			defer workersWg.Done()
			for refresher := range jobs {
				ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
				if err := refresher.Refresh(ctx); err != nil {
					logger.Warn("background refresh failed",
						zap.String("collection", refresher.Name()),
						zap.Error(err))
				}
				cancel()
			}
		}()
	}

	go func() {
		defer close(done)
		defer workersWg.Wait()
		defer close(jobs)

		logger.Info("background sync started",
			zap.Duration("interval", interval),
			zap.Int("collections", len(refreshers)))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		dispatch := func() {
			for _, refresher := range refreshers {
				select {
				case jobs <- refresher:
				default:
					logger.Debug("refresh still in flight, skipping tick",
						zap.String("collection", refresher.Name()))
				}
			}
		}

		// Prime the caches once at startup instead of waiting a full interval.
		dispatch()

		for {
			select {
			case <-ticker.C:
				dispatch()
			case <-stopChan:
				logger.Info("background sync stopping")
				return
			}
		}
	}()

	return done
}
