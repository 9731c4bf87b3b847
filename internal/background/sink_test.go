package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	fusion_errors "logline-fusion/pkg/errors"
	"logline-fusion/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueRunsTask(t *testing.T) {
	sink := NewSink(8, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)

	done := make(chan struct{})
	require.NoError(t, sink.Enqueue(Task{Name: "t", Run: func(context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	sink := NewSink(1, logger.NewNop())

	block := func(context.Context) error { return nil }
	require.NoError(t, sink.Enqueue(Task{Name: "a", Run: block}))
	assert.ErrorIs(t, sink.Enqueue(Task{Name: "b", Run: block}), fusion_errors.ErrQueueFull)
}

func TestTaskErrorsDoNotStopWorker(t *testing.T) {
	sink := NewSink(8, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink.Start(ctx)

	require.NoError(t, sink.Enqueue(Task{Name: "bad", Run: func(context.Context) error {
		return errors.New("boom")
	}}))
	require.NoError(t, sink.Enqueue(Task{Name: "panics", Run: func(context.Context) error {
		panic("boom")
	}}))

	var mu sync.Mutex
	ran := false
	require.NoError(t, sink.Enqueue(Task{Name: "good", Run: func(context.Context) error {
		mu.Lock()
		ran = true
		mu.Unlock()
		return nil
	}}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran
	}, time.Second, 5*time.Millisecond)
}
