package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	released int
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
	f.released++
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) error {
	c.runs++
	return c.err
}

func testLogger() (*logger.Logger, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	return logger.New(logger.Options{ServiceName: "cron-test", Output: logs}), logs
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	logg, _ := testLogger()
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logg})
	require.Error(t, err)

	svc, err := NewService(ServiceParams{Logger: logg, Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultInterval, svc.interval)
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	logg, logs := testLogger()
	ok := &countingJob{name: "ok"}
	broken := &countingJob{name: "broken", err: errors.New("boom")}
	lock := &fakeLock{}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(broken, ok),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.ErrorContains(t, err, "broken: boom")
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, broken.runs)
	assert.Equal(t, 1, lock.released)
	assert.Contains(t, logs.String(), "cron job failed")
	assert.Contains(t, logs.String(), "cron job completed")
	assert.Equal(t, 2.0, gatheredValue(t, reg, "souq_cron_job_runs_total"))
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	logg, logs := testLogger()
	job := &countingJob{name: "ok"}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Contains(t, logs.String(), "skipping cycle")
	assert.Equal(t, 1.0, gatheredValue(t, reg, "souq_cron_cycles_skipped_lock_held_total"))
}

func gatheredValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

type signalJob struct {
	ran chan struct{}
}

func (s *signalJob) Name() string { return "signal" }

func (s *signalJob) Run(context.Context) error {
	select {
	case <-s.ran:
	default:
		close(s.ran)
	}
	return nil
}

func TestRunStopsOnCancel(t *testing.T) {
	logg, _ := testLogger()
	job := &signalJob{ran: make(chan struct{})}
	svc, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(job), Lock: &fakeLock{}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(time.Second):
		t.Fatal("first cycle did not run")
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}
