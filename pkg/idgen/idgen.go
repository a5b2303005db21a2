// Package idgen 生成回收站条目 ID。
//
// 格式: <纳秒时间戳>_<PID>，例如 "1760000000123456789_4242"。
// 同一进程内严格递增：时钟回拨或同一纳秒内多次调用时，时间戳部分在上一次的基础上 +1。
package idgen

import (
	"fmt"
	"os"
	"sync"
	"time"

	"recyclebin/pkg/types"
)

// Generator 是并发安全的 ID 生成器
type Generator struct {
	mu   sync.Mutex
	last int64
	pid  int
	now  func() time.Time
}

// New 创建一个使用当前进程 PID 和系统时钟的生成器
func New() *Generator {
	return &Generator{pid: os.Getpid(), now: time.Now}
}

// NewWithClock 允许注入时钟和 PID，主要用于测试
func NewWithClock(pid int, now func() time.Time) *Generator {
	return &Generator{pid: pid, now: now}
}

// Next 返回一个新的 ID
func (g *Generator) Next() types.ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixNano()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts

	return types.ID(fmt.Sprintf("%d_%d", ts, g.pid))
}
