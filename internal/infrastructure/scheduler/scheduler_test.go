package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct {
	name string
	runs int
}

func (j *noopJob) Name() string        { return j.name }
func (j *noopJob) Description() string { return "test job" }
func (j *noopJob) Run(ctx context.Context) error {
	j.runs++
	return nil
}

func TestSchedulerStartStop(t *testing.T) {
	sched := NewScheduler(SchedulerConfig{})
	require.NoError(t, sched.Register(&noopJob{name: "noop"}, NewIntervalSchedule(time.Hour)))

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	assert.True(t, sched.IsRunning())

	// Повторный запуск без остановки запрещён.
	err := sched.Start(ctx)
	assert.ErrorIs(t, err, ErrSchedulerAlreadyRunning)

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.ErrorIs(t, sched.Stop(), ErrSchedulerNotRunning)
}

func TestSchedulerRunNow(t *testing.T) {
	sched := NewScheduler(SchedulerConfig{})
	job := &noopJob{name: "digest"}
	require.NoError(t, sched.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := sched.RunNow(context.Background(), "digest")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "digest", result.JobName)
	assert.Equal(t, 1, job.runs)

	_, err = sched.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSchedulerRegisterRejectsDuplicates(t *testing.T) {
	sched := NewScheduler(SchedulerConfig{})
	require.NoError(t, sched.Register(&noopJob{name: "dup"}, NewIntervalSchedule(time.Hour)))

	err := sched.Register(&noopJob{name: "dup"}, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}
