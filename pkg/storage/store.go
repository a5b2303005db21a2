package storage

import (
	"context"
	"errors"

	"recyclebin/pkg/types"
)

var (
	ErrNotFound = errors.New("payload not found")
	ErrExists   = errors.New("payload already exists")
)

// Store 定义 payload 区 (files/) 的访问接口。
// 每个 payload 以 ID 命名，内容就是被移走的原始文件 / 目录 / 符号链接本身。
type Store interface {
	// Put 把 src 移动到 payload 区，命名为 id
	// 符号链接走"复制链接再删除原链接"，避免某些文件系统上 move 时解引用
	Put(ctx context.Context, id types.ID, src string, kind types.Kind) error

	// Take 把 payload 移回 dst (dst 不能已存在，冲突由调用方先处理)
	Take(ctx context.Context, id types.ID, dst string) error

	// Delete 永久删除 payload
	Delete(ctx context.Context, id types.ID) error

	// Has 检查 payload 是否存在 (悬空的符号链接也算存在)
	Has(ctx context.Context, id types.ID) (bool, error)

	// Path 返回 payload 的物理路径
	Path(id types.ID) string

	// List 返回 payload 区里的所有条目名
	List(ctx context.Context) ([]types.ID, error)

	// Clear 删除 payload 区里的所有条目 (包括没有记录的孤儿 payload)
	Clear(ctx context.Context) (int, error)
}
