package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// Scheduler runs the warm-up job on its cron schedule.
type Scheduler struct {
	job     *WarmupJob
	cron    *cron.Cron
	logger  zerolog.Logger
	running atomic.Bool
	ctx     context.Context
}

// NewScheduler schedules job according to its configuration. It returns nil
// when the schedule is empty.
func NewScheduler(ctx context.Context, job *WarmupJob, logger zerolog.Logger) (*Scheduler, error) {
	spec := job.config.Schedule
	if spec == "" {
		return nil, nil
	}

	s := &Scheduler{
		job:    job,
		cron:   cron.New(),
		logger: logger,
		ctx:    ctx,
	}

	if err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid warm-up schedule %q: %w", spec, err)
	}
	return s, nil
}

// tick runs one warm-up, skipping if the previous run is still going.
func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("warm-up still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if s.ctx.Err() != nil {
		return
	}
	s.job.Run(s.ctx)
}

// Start begins scheduling and runs one warm-up immediately in the background.
func (s *Scheduler) Start() {
	s.logger.Info().Str("schedule", s.job.config.Schedule).Msg("forecast warm-up scheduled")
	go s.tick()
	s.cron.Start()
}

// Stop halts scheduling. A run in progress ends when its context is cancelled.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
