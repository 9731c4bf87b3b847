package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	fusion_errors "logline-fusion/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepAliveSendsPings(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, "user:a", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.KeepAlive(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return conn.pingCount() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestKeepAliveStopsOnCancel(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, "user:a", time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go c.KeepAlive(ctx, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return conn.pingCount() >= 1
	}, time.Second, time.Millisecond)

	cancel()
	time.Sleep(25 * time.Millisecond)
	n := conn.pingCount()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, n, conn.pingCount())
}

func TestKeepAliveStopsOnWriteFailure(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	c := NewClient(conn, "user:a", time.Second)

	done := make(chan struct{})
	go func() {
		c.KeepAlive(context.Background(), 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepalive kept running after a failed ping")
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	c := NewClient(&fakeConn{}, "user:a", time.Second)
	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, c.Enqueue(i))
	}
	assert.ErrorIs(t, c.Enqueue("overflow"), fusion_errors.ErrQueueFull)
}

func TestEnqueueFailsOnClosedClient(t *testing.T) {
	c := NewClient(&fakeConn{}, "user:a", time.Second)
	c.Close()
	assert.Error(t, c.Enqueue("late"))
}
