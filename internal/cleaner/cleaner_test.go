package cleaner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanAllQueues(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestNewDisabled(t *testing.T) {
	for _, schedule := range []string{"", Off} {
		c, err := New(schedule, &countingCleaner{})
		if err != nil || c != nil {
			t.Errorf("Expected no cleaner for %q, got %v, %v", schedule, c, err)
		}
	}
}

func TestNewInvalidSchedule(t *testing.T) {
	if _, err := New("every night", &countingCleaner{}); err == nil {
		t.Error("Expected an error for an invalid schedule")
	}
}

func TestRunJob(t *testing.T) {
	svc := &countingCleaner{err: errors.New("boom")}
	c, err := New("0 0 * * *", svc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(c.cron.Entries()) != 1 {
		t.Fatalf("Expected 1 scheduled job, got %d", len(c.cron.Entries()))
	}

	// A failing run is logged, not fatal.
	c.run()
	c.run()
	if got := svc.calls.Load(); got != 2 {
		t.Errorf("Expected 2 cleanups, got %d", got)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	c, err := New("0 0 * * *", &countingCleaner{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Expected nil from Run, got %v", err)
	}
}
