package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) (*Service, *prometheus.Registry) {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)
	return svc, reg
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	lock := &fakeLock{}
	ok := &testJob{name: "query-retention"}
	failing := &testJob{name: "broken", err: errors.New("boom")}
	svc, _ := newTestService(t, lock, failing, ok)

	svc.runCycle(context.Background())

	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunCycleSkipsWhenLocked(t *testing.T) {
	lock := &fakeLock{held: true}
	job := &testJob{name: "query-retention"}
	svc, reg := newTestService(t, lock, job)

	svc.runCycle(context.Background())

	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
	assert.Equal(t, "erp_cron_job_runs_total", mfs[0].GetName())
}

func TestRunNamed(t *testing.T) {
	lock := &fakeLock{}
	job := &testJob{name: "query-retention"}
	failing := &testJob{name: "broken", err: errors.New("boom")}
	svc, _ := newTestService(t, lock, job, failing)
	ctx := context.Background()

	require.NoError(t, svc.RunNamed(ctx, "query-retention"))
	assert.Equal(t, 1, job.runs)
	assert.Zero(t, failing.runs)

	err := svc.RunNamed(ctx, "broken")
	assert.ErrorContains(t, err, "broken: boom")

	err = svc.RunNamed(ctx, "nope")
	assert.ErrorContains(t, err, "known: broken, query-retention")

	lock.held = true
	assert.ErrorIs(t, svc.RunNamed(ctx, "query-retention"), ErrLocked)
	assert.Equal(t, 1, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "query-retention"}
	svc, _ := newTestService(t, &fakeLock{}, job)
	svc.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceValidates(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = NewService(ServiceParams{Registry: registry, Lock: &fakeLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logg, Registry: registry})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}})
	assert.Error(t, err)

	svc, err := NewService(ServiceParams{Logger: logg, Registry: registry, Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, svc.interval)
}
