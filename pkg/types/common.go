// pkg/types/common.go
package types

import (
	"fmt"
	"strings"
)

// ID 是回收站条目的唯一标识符，同时也是 files/ 目录下 payload 的文件名。
// 这是一个"值对象"，创建后不可变。
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// IsValid 检查 ID 能否安全地作为单个文件名使用
// 拒绝路径分隔符和 "." / ".."，防止逃逸出 payload 目录
func (id ID) IsValid() bool {
	s := string(id)
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}

// Kind 描述被捕获条目的文件类型
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
)

func (k Kind) String() string { return string(k) }

// ParseKind 解析 metadata.db 中的 FILE_TYPE 列
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.TrimSpace(s)) {
	case KindFile:
		return KindFile, nil
	case KindDirectory:
		return KindDirectory, nil
	case KindSymlink:
		return KindSymlink, nil
	default:
		return "", fmt.Errorf("unknown file type %q", s)
	}
}
