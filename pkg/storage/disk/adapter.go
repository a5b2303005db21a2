package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"recyclebin/pkg/storage"
	"recyclebin/pkg/types"

	"golang.org/x/sys/unix"
)

// Adapter 实现了 storage.Store 接口
type Adapter struct {
	rootPath string // 比如: /home/user/.recycle_bin/files
}

// NewAdapter 创建一个新的磁盘 payload 区
func NewAdapter(root string) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create payload dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

// layout 返回 ID 对应的物理路径: files/<ID>
// 不做分片，保持与 metadata.db 中 ID 一一对应、肉眼可查
func (s *Adapter) layout(id types.ID) string {
	return filepath.Join(s.rootPath, id.String())
}

func (s *Adapter) Path(id types.ID) string {
	return s.layout(id)
}

func (s *Adapter) Put(ctx context.Context, id types.ID, src string, kind types.Kind) error {
	if !id.IsValid() {
		return fmt.Errorf("invalid payload id %q", id)
	}
	target := s.layout(id)

	// 1. 同名 payload 已存在说明 ID 冲突，绝不能覆盖
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%w: %s", storage.ErrExists, id)
	}

	// 2. 符号链接：复制链接本身，再删除原链接
	if kind == types.KindSymlink {
		if err := copySymlink(src, target); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			_ = os.Remove(target)
			return fmt.Errorf("failed to remove original link %q: %w", src, err)
		}
		return nil
	}

	// 3. 文件和目录整体移动
	return movePath(src, target)
}

func (s *Adapter) Take(ctx context.Context, id types.ID, dst string) error {
	if !id.IsValid() {
		return fmt.Errorf("invalid payload id %q", id)
	}
	src := s.layout(id)

	info, err := os.Lstat(src)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %q already exists", dst)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if err := copySymlink(src, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}
	return movePath(src, dst)
}

func (s *Adapter) Delete(ctx context.Context, id types.ID) error {
	if !id.IsValid() {
		return fmt.Errorf("invalid payload id %q", id)
	}
	target := s.layout(id)
	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return forceRemoveAll(target)
}

func (s *Adapter) Has(ctx context.Context, id types.ID) (bool, error) {
	if !id.IsValid() {
		return false, nil
	}
	// Lstat：payload 本身可能就是一个悬空的符号链接
	_, err := os.Lstat(s.layout(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *Adapter) List(ctx context.Context) ([]types.ID, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, types.ID(e.Name()))
	}
	return ids, nil
}

func (s *Adapter) Clear(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := forceRemoveAll(filepath.Join(s.rootPath, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// movePath 优先 Rename；跨设备 (EXDEV) 时退化为递归复制 + 删除
func movePath(source, destination string) error {
	if err := os.Rename(source, destination); err == nil {
		return nil
	} else if !errors.Is(err, unix.EXDEV) {
		return err
	}

	if err := copyPathRecursive(source, destination); err != nil {
		_ = forceRemoveAll(destination)
		return err
	}
	return forceRemoveAll(source)
}

func copySymlink(source, destination string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return fmt.Errorf("failed to read link %q: %w", source, err)
	}
	if err := os.Symlink(target, destination); err != nil {
		return fmt.Errorf("failed to duplicate link %q: %w", source, err)
	}
	return nil
}

// copyPathRecursive 复制文件 / 目录树，符号链接按链接本身复制，不跟随
func copyPathRecursive(source, destination string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(source, destination)
	case !info.IsDir():
		return copyFile(source, destination, info.Mode())
	}

	return filepath.WalkDir(source, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(source, current)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, rel)

		entryInfo, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			return copySymlink(current, target)
		case entry.IsDir():
			// 先给自己写权限，复制完子项后由调用方决定是否恢复
			if err := os.MkdirAll(target, entryInfo.Mode().Perm()|0o700); err != nil {
				return err
			}
			return nil
		case entry.Type().IsRegular():
			return copyFile(current, target, entryInfo.Mode())
		default:
			// 设备文件、FIFO 等无法跨设备复制
			return fmt.Errorf("cannot copy special file %q across devices", current)
		}
	})
}

func copyFile(source, destination string, mode os.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode.Perm())
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(output, input)
	closeErr := output.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// forceRemoveAll 和 os.RemoveAll 一样，但会先补上目录的写权限
// 用户删除过只读目录 (例如 0555) 时，直接 RemoveAll 会失败
func forceRemoveAll(path string) error {
	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr == nil && d.IsDir() {
			_ = os.Chmod(p, 0o700)
		}
		return nil
	})
	return os.RemoveAll(path)
}
