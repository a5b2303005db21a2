package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_SecondAcquireIsBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	g1, err := Acquire(path)
	require.NoError(t, err)

	// flock 锁的是打开的文件描述，同一进程里再次 open + flock 也会冲突
	g2, err := Acquire(path)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, g2)

	require.NoError(t, g1.Release())

	g3, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g3.Release())
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	g, err := Acquire(filepath.Join(t.TempDir(), ".lock"))
	require.NoError(t, err)

	assert.NoError(t, g.Release())
	assert.NoError(t, g.Release())

	var nilGuard *Guard
	assert.NoError(t, nilGuard.Release())
}

func TestGuard_WritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	g, err := Acquire(path)
	require.NoError(t, err)
	defer g.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	boom := errors.New("boom")

	err := WithLock(context.Background(), path, func(ctx context.Context) error {
		// 持锁期间其它调用者拿不到锁
		_, busyErr := Acquire(path)
		assert.ErrorIs(t, busyErr, ErrBusy)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	g, err := Acquire(path)
	require.NoError(t, err, "lock must be released after fn fails")
	require.NoError(t, g.Release())
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	assert.Panics(t, func() {
		_ = WithLock(context.Background(), path, func(ctx context.Context) error {
			panic("boom")
		})
	})

	g, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g.Release())
}

func TestWithLock_BusyDoesNotRunFn(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")
	holder, err := Acquire(path)
	require.NoError(t, err)
	defer holder.Release()

	ran := false
	err = WithLock(context.Background(), path, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, ran)
}

func TestWithLock_SignalCancelsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	err := WithLock(context.Background(), path, func(ctx context.Context) error {
		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("context was not cancelled by signal")
		}
	})
	assert.ErrorIs(t, err, context.Canceled)

	g, err := Acquire(path)
	require.NoError(t, err, "lock must be released after interruption")
	require.NoError(t, g.Release())
}
