// Package monitoring runs periodic maintenance jobs.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner deletes events created before a cutoff.
type EventPruner interface {
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler prunes old activity events on a cron schedule.
type Scheduler struct {
	pruner    EventPruner
	retention time.Duration
	spec      cron.Schedule
	now       func() time.Time
	done      chan struct{}
	stopped   chan struct{}
}

// NewScheduler creates a scheduler that removes events older than retention whenever
// the standard 5-field cron expression fires.
func NewScheduler(pruner EventPruner, retention time.Duration, expression string) (*Scheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("event retention must be positive, got %s", retention)
	}
	spec, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", expression, err)
	}
	return &Scheduler{
		pruner:    pruner,
		retention: retention,
		spec:      spec,
		now:       time.Now,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Run blocks, pruning once immediately and then at every scheduled time, until Stop is called.
func (s *Scheduler) Run() {
	defer close(s.stopped)
	log.Info().Dur("retention", s.retention).Msg("Starting event pruner")

	// Run once immediately on start
	s.Prune(context.Background())

	for {
		next := s.spec.Next(s.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.done:
			timer.Stop()
			log.Info().Msg("Stopping event pruner")
			return
		case <-timer.C:
			s.Prune(context.Background())
		}
	}
}

// Stop halts the scheduler and waits for Run to return.
func (s *Scheduler) Stop() {
	close(s.done)
	<-s.stopped
}

// Prune deletes events older than the retention window and returns how many were removed.
func (s *Scheduler) Prune(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("Failed to prune events")
		return 0
	}
	if n > 0 {
		log.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("Pruned old events")
	}
	return n
}
