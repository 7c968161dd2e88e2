// Package scheduler runs the background jobs that keep cycle state
// moving without user action. Currently that is a single daily job:
// promoting draft cycles whose start date has arrived.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"cadence/internal/logger"
	"cadence/internal/services"
)

// Scheduler wraps a cron runner around the cycle service.
type Scheduler struct {
	cron   *cron.Cron
	cycles services.PayCycleServicer
}

// New creates a Scheduler with the promote-due job registered on the
// given cron expression.
func New(cycles services.PayCycleServicer, promoteSpec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		cycles: cycles,
	}
	if _, err := s.cron.AddFunc(promoteSpec, s.promoteDue); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running jobs in their own goroutine.
func (s *Scheduler) Start() {
	log := logger.Get()
	log.Info("Scheduler started")
	s.cron.Start()
}

// Stop stops the cron runner and waits for any running job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) promoteDue() {
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	promoted, err := s.cycles.PromoteDue(ctx, time.Now())
	if err != nil {
		log.Errorw("Draft promotion failed", "error", err)
		return
	}
	if promoted > 0 {
		log.Infow("Promoted due draft cycles", "count", promoted)
	}
}
