// Package fsinfo 封装回收站需要的文件系统探测：类型、大小、属主、访问权限、剩余空间。
package fsinfo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"recyclebin/pkg/types"

	"golang.org/x/sys/unix"
)

// Info 是对一个条目的快照
type Info struct {
	Kind  types.Kind
	Size  int64
	Mode  os.FileMode
	Owner string // "user:group"
}

// Inspect 对 path 做 Lstat 并计算大小。
// 符号链接取链接本身的大小；目录递归累加其中的普通文件大小；文件取自身大小。
func Inspect(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Kind:  KindOf(fi),
		Mode:  fi.Mode().Perm(),
		Owner: Owner(fi),
	}

	switch info.Kind {
	case types.KindDirectory:
		size, err := DirSize(path)
		if err != nil {
			return Info{}, fmt.Errorf("failed to size directory %q: %w", path, err)
		}
		info.Size = size
	default:
		info.Size = fi.Size()
	}
	return info, nil
}

// KindOf 把 FileInfo 归类。设备文件、FIFO 等按 file 处理。
func KindOf(fi os.FileInfo) types.Kind {
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		return types.KindSymlink
	case fi.IsDir():
		return types.KindDirectory
	default:
		return types.KindFile
	}
}

// DirSize 递归累加目录下普通文件的字节数，不跟随符号链接
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}

// Owner 返回 "user:group"；名字查不到时退化为数字 ID
func Owner(fi os.FileInfo) string {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	gid := strconv.FormatUint(uint64(st.Gid), 10)

	name := uid
	if u, err := user.LookupId(uid); err == nil {
		name = u.Username
	}
	group := gid
	if g, err := user.LookupGroupId(gid); err == nil {
		group = g.Name
	}
	return name + ":" + group
}

// ErrAccess 表示调用者对条目或其父目录缺少必要权限
var ErrAccess = errors.New("insufficient permissions")

// CheckAccess 检查调用者能否移动 path：
// 条目本身需要可读可写 (符号链接除外，access(2) 会跟随链接)，父目录需要可写可进入。
func CheckAccess(path string, kind types.Kind) error {
	if kind != types.KindSymlink {
		if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAccess, path, err)
		}
	}
	parent := filepath.Dir(path)
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAccess, parent, err)
	}
	return nil
}

// FreeBytes 返回 path 所在文件系统对非特权用户可用的字节数。
// path 不存在时向上找到最近的已存在祖先目录。
func FreeBytes(path string) (uint64, error) {
	p := path
	for {
		if _, err := os.Stat(p); err == nil {
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	var st unix.Statfs_t
	if err := unix.Statfs(p, &st); err != nil {
		return 0, fmt.Errorf("statfs %q: %w", p, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

// RestoreMode 恢复权限位；符号链接没有自己的权限位，直接跳过
func RestoreMode(path string, kind types.Kind, mode os.FileMode) error {
	if kind == types.KindSymlink {
		return nil
	}
	return os.Chmod(path, mode.Perm())
}

// RestoreOwner 按 "user:group" 恢复属主，不跟随符号链接。
// 当前属主已经一致时不做任何事，避免普通用户无意义的 EPERM。
func RestoreOwner(path string, owner string) error {
	if owner == "" {
		return nil
	}
	uid, gid, err := lookupOwner(owner)
	if err != nil {
		return err
	}

	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok && int(st.Uid) == uid && int(st.Gid) == gid {
		return nil
	}
	return os.Lchown(path, uid, gid)
}

func lookupOwner(owner string) (int, int, error) {
	name, group, ok := strings.Cut(owner, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed owner %q", owner)
	}

	uid, err := strconv.Atoi(name)
	if err != nil {
		u, lerr := user.Lookup(name)
		if lerr != nil {
			return 0, 0, fmt.Errorf("unknown user %q: %w", name, lerr)
		}
		uid, _ = strconv.Atoi(u.Uid)
	}

	gid, err := strconv.Atoi(group)
	if err != nil {
		g, lerr := user.LookupGroup(group)
		if lerr != nil {
			return 0, 0, fmt.Errorf("unknown group %q: %w", group, lerr)
		}
		gid, _ = strconv.Atoi(g.Gid)
	}
	return uid, gid, nil
}
