package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	q := NewQueue("reminders", QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	var attempts int32
	q.Handle("deadline.reminder", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "deadline.reminder"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsUnknownType(t *testing.T) {
	q := NewQueue("reminders", QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()
	assert.Error(t, q.Enqueue(Job{ID: "1", Type: "nope"}))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("reminders", QueueConfig{})
	q.Handle("x", func(context.Context, Job) error { return nil })
	assert.Error(t, q.Enqueue(Job{Type: "x"}))
}
