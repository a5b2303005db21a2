// Package lock 提供整个回收站的排他锁 (advisory flock)。
//
// 所有会修改回收站的命令都在 WithLock 内执行：进入时获取锁，
// 无论正常返回、出错还是收到 SIGINT/SIGTERM，都会在退出时释放。
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrBusy 表示另一个进程正持有回收站锁
var ErrBusy = errors.New("recycle bin is busy: another operation is in progress")

// Guard 持有一把 flock。用 Acquire 获取，用 Release 释放 (可重复调用)。
type Guard struct {
	file *os.File
	once sync.Once
	err  error
}

// Acquire 以非阻塞方式对 path (哨兵文件) 加排他锁。
// 锁已被占用时立即返回 ErrBusy，不会等待。
func Acquire(path string) (*Guard, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		// EAGAIN / EWOULDBLOCK 表示锁被别人持有
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// 写入 PID 方便人工排查，失败不影响加锁
	if err := f.Truncate(0); err == nil {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return &Guard{file: f}, nil
}

// Release 解锁并关闭文件。只有第一次调用真正生效。
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		unlockErr := unix.Flock(int(g.file.Fd()), unix.LOCK_UN)
		closeErr := g.file.Close()
		g.err = errors.Join(unlockErr, closeErr)
	})
	return g.err
}

// WithLock 在持锁状态下执行 fn。
//
// 收到 SIGINT/SIGTERM 时传给 fn 的 ctx 会被取消；fn 应当在条目之间检查 ctx，
// 返回后由 defer 释放锁。fn 的错误原样返回。
func WithLock(ctx context.Context, path string, fn func(ctx context.Context) error) (err error) {
	guard, err := Acquire(path)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(sigCtx)
}
