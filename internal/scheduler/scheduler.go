package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"autoshare/internal/domain"
)

// Runner performs one pipeline pass over every enabled owner.
type Runner interface {
	RunAll(ctx context.Context) (domain.RunSummary, error)
}

type Scheduler struct {
	runner   Runner
	schedule cron.Schedule
	spec     string
	timeout  time.Duration
	loc      *time.Location
	logger   *slog.Logger

	// running guards against overlapping passes when one outlives the interval.
	running sync.Mutex
}

// NewScheduler parses spec as a standard five-field cron expression or a
// descriptor such as "@every 15m".
func NewScheduler(runner Runner, spec string, timeout time.Duration, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		runner:   runner,
		schedule: schedule,
		spec:     spec,
		timeout:  timeout,
		loc:      loc,
		logger:   logger.With("component", "scheduler"),
	}, nil
}

// Start runs one pass immediately and then on every tick until ctx is done.
// It waits for an in-flight pass before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "schedule", s.spec, "timezone", s.loc.String())

	s.runPass(ctx)

	c := cron.New(cron.WithLocation(s.loc))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.runPass(ctx)
	}))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.TryLock() {
		s.logger.Warn("previous pass still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	passCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	summary, err := s.runner.RunAll(passCtx)
	if err != nil {
		s.logger.Error("pass failed", "error", err)
		return
	}
	if summary.TotalFailure() {
		s.logger.Error("pass failed for every owner",
			"owners", summary.Owners,
			"fetch_errors", summary.FetchErrors,
		)
	}
}
