package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsiwatch/internal/config"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(context.Context) {
	r.runs.Add(1)
}

func TestDefaultCronSpec(t *testing.T) {
	schedule, err := cron.ParseStandard(config.DefaultCronSpec)
	require.NoError(t, err)

	// Minute 3, every hour, on days 2, 15 and 28.
	next := schedule.Next(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 2, 0, 3, 0, 0, time.UTC), next)

	next = schedule.Next(next)
	assert.Equal(t, time.Date(2026, time.January, 2, 1, 3, 0, 0, time.UTC), next)

	next = schedule.Next(time.Date(2026, time.January, 2, 23, 3, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.January, 15, 0, 3, 0, 0, time.UTC), next)

	next = schedule.Next(time.Date(2026, time.January, 28, 23, 3, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.February, 2, 0, 3, 0, 0, time.UTC), next)
}

func TestSchedulerStartStop(t *testing.T) {
	runner := &countingRunner{}
	s := New(config.DefaultCronSpec, runner)

	require.NoError(t, s.Start())
	s.Stop()
}

func TestSchedulerInvalidSpec(t *testing.T) {
	s := New("not a cron spec", &countingRunner{})
	require.Error(t, s.Start())
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	runner := &countingRunner{}
	s := New("@every 10ms", runner)

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 1
	}, time.Second, 5*time.Millisecond)
}
