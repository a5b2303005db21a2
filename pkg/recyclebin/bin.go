// Package recyclebin 实现回收站的核心操作：捕获、还原、查询和各类清理。
//
// Bin 本身不加锁。会修改 metadata.db 或 files/ 的操作应当放在 Bin.Locked 里执行。
package recyclebin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recyclebin/pkg/config"
	"recyclebin/pkg/fsinfo"
	"recyclebin/pkg/idgen"
	"recyclebin/pkg/ignore"
	"recyclebin/pkg/lock"
	"recyclebin/pkg/meta"
	"recyclebin/pkg/storage"
)

type Bin struct {
	cfg      *config.Config
	records  *meta.Store
	payloads storage.Store
	ids      *idgen.Generator
	protect  *ignore.Matcher
	log      *slog.Logger

	now       func() time.Time
	freeBytes func(path string) (uint64, error)
}

type Option func(*Bin)

// WithClock 替换时间源 (删除时间、保留期截止时间、重命名后缀)
func WithClock(now func() time.Time) Option {
	return func(b *Bin) { b.now = now }
}

// WithFreeSpace 替换剩余空间探测
func WithFreeSpace(fn func(path string) (uint64, error)) Option {
	return func(b *Bin) { b.freeBytes = fn }
}

// WithProtect 设置受保护路径规则
func WithProtect(m *ignore.Matcher) Option {
	return func(b *Bin) { b.protect = m }
}

// WithIDGenerator 替换 ID 生成器
func WithIDGenerator(g *idgen.Generator) Option {
	return func(b *Bin) { b.ids = g }
}

func New(cfg *config.Config, records *meta.Store, payloads storage.Store, log *slog.Logger, opts ...Option) *Bin {
	if log == nil {
		log = slog.Default()
	}
	b := &Bin{
		cfg:       cfg,
		records:   records,
		payloads:  payloads,
		ids:       idgen.New(),
		log:       log,
		now:       time.Now,
		freeBytes: fsinfo.FreeBytes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bin) Config() *config.Config { return b.cfg }

// Locked 持有回收站锁执行 fn，锁被占用时立即返回 lock.ErrBusy
func (b *Bin) Locked(ctx context.Context, fn func(ctx context.Context) error) error {
	err := lock.WithLock(ctx, b.cfg.LockPath(), fn)
	if errors.Is(err, lock.ErrBusy) {
		b.log.Error("recycle bin busy", "lock", b.cfg.LockPath())
	}
	return err
}

// occupied 按记录累加当前占用字节数
func (b *Bin) occupied() (int64, error) {
	records, err := b.records.Scan()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, rec := range records {
		total += rec.Size
	}
	return total, nil
}
