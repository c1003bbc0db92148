package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ErrLocked is returned by RunNamed when another process holds the lock.
var ErrLocked = errors.New("cron lock held by another worker")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs every registered job once per interval, at most one worker
// at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	if params.Registry == nil {
		return nil, errors.New("registry required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      time.Now,
	}, nil
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "interval", s.interval.String())
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// RunNamed runs one job under the lock and returns its error. erpctl uses it
// for on-demand sweeps.
func (s *Service) RunNamed(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown cron job %q (known: %s)", name, strings.Join(s.registry.Names(), ", "))
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	if release == nil {
		s.metrics.Skipped(name)
		return ErrLocked
	}
	defer release()
	return s.runJob(ctx, job)
}

func (s *Service) runCycle(ctx context.Context) {
	release, err := s.acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "cron cycle not started", err)
		return
	}
	jobs := s.registry.Jobs()
	if release == nil {
		s.logg.Info(ctx, "another worker holds the cron lock; skipping cycle")
		for _, job := range jobs {
			s.metrics.Skipped(job.Name())
		}
		return
	}
	defer release()

	for _, job := range jobs {
		// Failures are logged and counted in runJob; later jobs still run.
		_ = s.runJob(ctx, job)
	}
}

// acquire returns a nil release func when the lock is taken elsewhere.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		return nil, nil
	}
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}, nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	s.logg.Info(jobCtx, "job start")

	start := s.now()
	err := job.Run(jobCtx)
	finished := s.now()
	elapsed := finished.Sub(start)
	s.metrics.Observe(job.Name(), elapsed, err, finished)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}
