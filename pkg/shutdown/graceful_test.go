package shutdown_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/pkg/shutdown"
)

func TestRun_ExecutesAllHooks(t *testing.T) {
	var calls atomic.Int32
	hook := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	err := shutdown.Run(context.Background(), time.Second, hook, hook, hook)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_JoinsHookErrors(t *testing.T) {
	errRedis := errors.New("redis close failed")
	errHTTP := errors.New("http shutdown failed")

	err := shutdown.Run(context.Background(), time.Second,
		func(context.Context) error { return errRedis },
		func(context.Context) error { return nil },
		func(context.Context) error { return errHTTP },
	)

	assert.ErrorIs(t, err, errRedis)
	assert.ErrorIs(t, err, errHTTP)
}

func TestSequence_RunsHooksInOrder(t *testing.T) {
	errHTTP := errors.New("http shutdown failed")
	var order []string

	hook := shutdown.Sequence(
		func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			order = append(order, "http")
			return errHTTP
		},
		func(context.Context) error {
			order = append(order, "redis")
			return nil
		},
	)

	err := shutdown.Run(context.Background(), time.Second, hook)

	assert.ErrorIs(t, err, errHTTP)
	assert.Equal(t, []string{"http", "redis"}, order)
}

func TestRun_RespectsTimeout(t *testing.T) {
	start := time.Now()

	err := shutdown.Run(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Second)
		return nil
	})

	assert.ErrorIs(t, err, shutdown.ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRun_IgnoresParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var hookErr error
	err := shutdown.Run(ctx, time.Second, func(ctx context.Context) error {
		hookErr = ctx.Err()
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, hookErr)
}

func TestWait_ReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- shutdown.Wait(ctx, time.Second, func(context.Context) error {
			close(called)
			return nil
		})
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after context cancel")
	}
	<-called
}

func TestWait_ReturnsOnSignal(t *testing.T) {
	called := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- shutdown.Wait(context.Background(), time.Second, func(context.Context) error {
			close(called)
			return nil
		})
	}()

	time.Sleep(100 * time.Millisecond)

	process, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, process.Signal(syscall.SIGTERM))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after SIGTERM")
	}
	<-called
}
