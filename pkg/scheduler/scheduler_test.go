package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/scheduler"
)

func TestAddAndRunNow(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	defer func() { _ = s.Shutdown() }()

	ctx := context.Background()
	calls := 0

	require.NoError(t, s.AddCron(ctx, "stats.report", "0 */6 * * *", func(context.Context) error {
		calls++
		return nil
	}))

	err = s.AddCron(ctx, "stats.report", "0 * * * *", func(context.Context) error { return nil })
	assert.Error(t, err)

	s.Start()

	require.NoError(t, s.RunNow(ctx, "stats.report"))
	assert.Equal(t, 1, calls)

	info, err := s.GetJobInfoByName("stats.report")
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusScheduled, info.Status)
	assert.False(t, info.LastSuccess.IsZero())
	assert.False(t, info.NextRun.IsZero())
	assert.Len(t, s.IDs(), 1)
}

func TestRunNowRecordsFailure(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	defer func() { _ = s.Shutdown() }()

	ctx := context.Background()

	require.NoError(t, s.AddCron(ctx, "b.fail", "15 * * * *", func(context.Context) error {
		return errors.New("store down")
	}))
	require.NoError(t, s.AddCron(ctx, "a.panic", "15 * * * *", func(context.Context) error {
		panic("boom")
	}))

	assert.EqualError(t, s.RunNow(ctx, "b.fail"), "store down")
	assert.ErrorContains(t, s.RunNow(ctx, "a.panic"), "boom")
	assert.Error(t, s.RunNow(ctx, "missing"))

	infos := s.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "a.panic", infos[0].Name)
	assert.Equal(t, scheduler.StatusError, infos[0].Status)
	assert.Equal(t, "store down", infos[1].Error)

	require.NoError(t, s.RemoveJobByName("a.panic"))
	assert.Len(t, s.GetJobInfos(), 1)
}

func TestInvalidCron(t *testing.T) {
	s, err := scheduler.NewScheduler()
	require.NoError(t, err)

	defer func() { _ = s.Shutdown() }()

	assert.Error(t, s.AddCron(context.Background(), "bad", "not a cron", func(context.Context) error { return nil }))
}
