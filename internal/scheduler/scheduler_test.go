package scheduler

import (
	"context"
	"testing"
	"time"

	"cadence/internal/services"
)

type stubCycleService struct {
	services.PayCycleServicer

	promoted int
	err      error
	calls    int
}

func (s *stubCycleService) PromoteDue(_ context.Context, _ time.Time) (int, error) {
	s.calls++
	return s.promoted, s.err
}

func TestNew(t *testing.T) {
	t.Run("accepts a valid cron spec", func(t *testing.T) {
		s, err := New(&stubCycleService{}, "15 0 * * *")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s == nil {
			t.Fatal("expected a scheduler")
		}
	})

	t.Run("rejects a malformed cron spec", func(t *testing.T) {
		if _, err := New(&stubCycleService{}, "every day at midnight"); err == nil {
			t.Error("expected an error for a malformed spec")
		}
	})
}

func TestPromoteDue(t *testing.T) {
	t.Run("calls through to the cycle service", func(t *testing.T) {
		stub := &stubCycleService{promoted: 2}
		s, err := New(stub, "15 0 * * *")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s.promoteDue()

		if stub.calls != 1 {
			t.Errorf("expected 1 call, got %d", stub.calls)
		}
	})

	t.Run("swallows service errors", func(t *testing.T) {
		stub := &stubCycleService{err: context.DeadlineExceeded}
		s, err := New(stub, "15 0 * * *")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Must not panic; the job logs and moves on.
		s.promoteDue()
	})
}

func TestStop(t *testing.T) {
	t.Run("stops cleanly when idle", func(t *testing.T) {
		s, err := New(&stubCycleService{}, "15 0 * * *")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.Start()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			t.Errorf("unexpected stop error: %v", err)
		}
	})
}
