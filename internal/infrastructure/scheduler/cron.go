// Package scheduler drives recurring route assessments.
package scheduler

import (
	"context"
	"sync"
	"time"

	"GeoTradeAI/internal/ports"
)

// TickerScheduler runs the job immediately and then on a fixed interval.
type TickerScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given cadence.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TickerScheduler{interval: interval}
}

// Start begins ticking. Calling Start twice is a no-op. The goroutine keeps
// its own reference to the stop channel, so a Stop issued while the job is
// mid-run is still observed once the job returns.
func (s *TickerScheduler) Start(ctx context.Context, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job == nil || s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A tick can already be buffered when Stop lands; never
				// run the job past a closed stop channel.
				select {
				case <-stop:
					return
				default:
				}
				job()
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call concurrently with a running
// job and idempotent.
func (s *TickerScheduler) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
