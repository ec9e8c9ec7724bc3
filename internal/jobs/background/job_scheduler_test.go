package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"medassist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls int32
	err   error
}

func (c *countingExpirer) ExpireDue(ctx context.Context) (int64, error) {
	atomic.AddInt32(&c.calls, 1)
	return 2, c.err
}

func TestNewJobScheduler_SkipsDisabledJobs(t *testing.T) {
	js, err := NewJobScheduler(config.JobsConfig{SubscriptionExpiry: time.Hour}, &countingExpirer{}, nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	status := js.GetJobStatus()

	assert.Equal(t, 1, status["total_jobs"])
	jobs := status["jobs"].([]map[string]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "subscription-expiry", jobs[0]["name"])
}

func TestJobScheduler_AddAndRemoveJob(t *testing.T) {
	js, err := NewJobScheduler(config.JobsConfig{}, &countingExpirer{}, nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	require.NoError(t, js.AddJob("noop", time.Hour, func(ctx context.Context) error { return nil }))
	assert.Equal(t, 1, js.GetJobStatus()["total_jobs"])

	require.NoError(t, js.RemoveJob("noop"))
	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
	assert.NoError(t, js.RemoveJob("missing"))
}

func TestJobScheduler_RunsJobs(t *testing.T) {
	js, err := NewJobScheduler(config.JobsConfig{}, &countingExpirer{}, nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	var runs int32
	require.NoError(t, js.AddJob("tick", 50*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}))
	js.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 2*time.Second, 20*time.Millisecond)
}

func TestJobScheduler_ExpireSubscriptions(t *testing.T) {
	expirer := &countingExpirer{}
	js, err := NewJobScheduler(config.JobsConfig{}, expirer, nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	assert.NoError(t, js.expireSubscriptions(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&expirer.calls))

	expirer.err = errors.New("db down")
	assert.EqualError(t, js.expireSubscriptions(context.Background()), "db down")
}
