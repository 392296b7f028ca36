package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestSyncServiceRefreshesAndStops(t *testing.T) {
	var calls atomic.Int64
	refresher := NewRefresher("tasks", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	stop := make(chan struct{})
	done := StartSyncService(10*time.Millisecond, []Refresher{refresher}, zaptest.NewLogger(t), stop)

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sync service did not drain after stop")
	}

	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "no refreshes after shutdown")
}

func TestSyncServiceSurvivesFailingRefresher(t *testing.T) {
	var healthy atomic.Int64
	refreshers := []Refresher{
		NewRefresher("broken", func(ctx context.Context) error { return errors.New("boom") }),
		NewRefresher("healthy", func(ctx context.Context) error {
			healthy.Add(1)
			return nil
		}),
	}

	stop := make(chan struct{})
	done := StartSyncService(10*time.Millisecond, refreshers, zaptest.NewLogger(t), stop)

	assert.Eventually(t, func() bool { return healthy.Load() >= 2 }, time.Second, 5*time.Millisecond)
	close(stop)
	<-done
}
