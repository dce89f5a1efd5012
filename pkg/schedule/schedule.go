// Package schedule runs named jobs at fixed wall clock times.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"golang.org/x/sync/errgroup"
)

// Job runs once a day at Hour:Minute, or once a week when Weekday is set.
type Job struct {
	Name    string
	Hour    int
	Minute  int
	Weekday *time.Weekday
	Run     func(ctx context.Context) error
}

// Weekly returns a pointer usable as Job.Weekday.
func Weekly(d time.Weekday) *time.Weekday {
	return &d
}

// Next returns the first run time strictly after now.
func (j Job) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), j.Hour, j.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	if j.Weekday != nil {
		for next.Weekday() != *j.Weekday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

// Scheduler is a lifecycle that runs each job on its own goroutine under an errgroup.
type Scheduler struct {
	jobs   []Job
	logger apt.Logger
	now    func() time.Time
	cancel context.CancelFunc
	group  *errgroup.Group
}

func New(logger apt.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Scheduler{jobs: jobs, logger: logger, now: time.Now}
}

func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	for _, job := range s.jobs {
		g.Go(func() error {
			s.loop(gctx, job)
			return nil
		})
	}
	s.group = g

	s.logger.Infof("scheduler started with %d jobs", len(s.jobs))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	for {
		wait := job.Next(s.now()).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.RunNow(ctx, job.Name); err != nil {
			s.logger.Errorf("job %s failed: %v", job.Name, err)
		}
	}
}

// RunNow executes a job immediately, used by admin triggers and tests.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name != name {
			continue
		}
		started := s.now()
		if err := job.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		s.logger.Info("job finished", "job", name, "took", time.Since(started).String())
		return nil
	}
	return fmt.Errorf("unknown job %q", name)
}
