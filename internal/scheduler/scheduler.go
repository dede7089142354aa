// Package scheduler starts runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Starter begins a run unless one is already active.
type Starter interface {
	Start(ctx context.Context) bool
}

// Scheduler wraps robfig/cron and fires one run per tick.
type Scheduler struct {
	cron     *cron.Cron
	starter  Starter
	schedule string // e.g. "@every 6h"
}

func New(starter Starter, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		starter:  starter,
		schedule: schedule,
	}
}

// Start registers the job and starts the cron loop. Ticks that land while a
// run is active are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.schedule, err)
	}
	s.cron.Start()
	log.Printf("[scheduler] Cron started, schedule: %s", s.schedule)
	return nil
}

// Trigger runs one tick now.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.starter.Start(ctx) {
		log.Println("[scheduler] Run already in progress, skipping tick")
		return false
	}
	log.Println("[scheduler] Run started")
	return true
}

// Stop halts the cron loop and waits for a tick in progress.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}
