package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerSchedulerRunsJobImmediately(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	ran := make(chan struct{}, 1)

	if err := s.Start(context.Background(), func() { ran <- struct{}{} }); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
}

func TestTickerSchedulerStopDuringRunningJob(t *testing.T) {
	t.Parallel()

	var runs atomic.Int64
	s := NewTickerScheduler(5 * time.Millisecond)

	if err := s.Start(context.Background(), func() {
		runs.Add(1)
		time.Sleep(30 * time.Millisecond)
	}); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	// Wait for the immediate run to begin, then stop while it is still
	// sleeping; several ticks will have fired by the time it returns.
	for runs.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	atStop := runs.Load()

	time.Sleep(80 * time.Millisecond)
	if got := runs.Load(); got != atStop {
		t.Fatalf("job ran %d more times after Stop returned", got-atStop)
	}
}

func TestTickerSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	if err := s.Start(context.Background(), func() {}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop must be a no-op: %v", err)
	}
}

func TestTickerSchedulerNilJob(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("nil job must be ignored: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
