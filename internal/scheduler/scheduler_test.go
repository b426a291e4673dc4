package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRegisterFuncInvalidSpec(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.RegisterFunc("not a cron spec", "bad", func() error { return nil }); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(zap.NewNop())

	var runs atomic.Int32
	if err := s.RegisterFunc("@every 10ms", "tick", func() error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
