package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func TestScheduler_RunsTask(t *testing.T) {
	s := New(logger.NewNop())
	done := make(chan struct{})

	s.ScheduleAt(time.Now().Add(10*time.Millisecond), "test", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_Cancel(t *testing.T) {
	s := New(logger.NewNop())
	var runs int32

	h := s.ScheduleAt(time.Now().Add(50*time.Millisecond), "cancelled", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
	assert.Equal(t, 0, s.Pending())
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_PanicDoesNotBreakOtherTasks(t *testing.T) {
	s := New(logger.NewNop())
	done := make(chan struct{})

	s.ScheduleAt(time.Now(), "panics", func(ctx context.Context) {
		panic("boom")
	})
	s.ScheduleAt(time.Now().Add(20*time.Millisecond), "after panic", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task after panic did not run")
	}
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopDropsPending(t *testing.T) {
	s := New(logger.NewNop())
	var runs int32

	s.ScheduleAt(time.Now().Add(time.Hour), "far", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	require.NoError(t, s.Stop(context.Background()))

	s.ScheduleAt(time.Now(), "after stop", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}
