package recyclebin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recyclebin/pkg/fsinfo"
	"recyclebin/pkg/meta"

	"golang.org/x/sys/unix"
)

// RecallResult 描述一次还原
type RecallResult struct {
	Record      meta.Record
	Destination string
	Decision    Decision // 仅在 Conflict 为 true 时有意义
	Conflict    bool
	Cancelled   bool
	Warnings    []error // 权限位或属主恢复失败，不影响还原本身
}

// Recall 按 ID 或原始文件名把条目还原到原路径。
// 目标已存在时询问 resolver；选择取消时返回 Cancelled 且不报错。
func (b *Bin) Recall(ctx context.Context, key string, resolver ConflictResolver) (*RecallResult, error) {
	res, err := b.recall(ctx, key, resolver)
	if err != nil {
		b.log.Error("restore failed", "key", key, "error", err)
		return res, err
	}
	return res, nil
}

func (b *Bin) recall(ctx context.Context, key string, resolver ConflictResolver) (*RecallResult, error) {
	// 1. 查找记录
	rec, err := b.records.FindBy(key)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, fmt.Errorf("%w: no item matches %q", ErrNotFound, key)
		}
		return nil, err
	}

	// 2. payload 必须在
	ok, err := b.payloads.Has(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrPayloadMissing, rec.OriginalName, rec.ID)
	}

	res := &RecallResult{Record: rec, Destination: rec.OriginalPath}

	// 3. 父目录不存在就重建
	parent := filepath.Dir(rec.OriginalPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, parent, err)
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDestinationUnwritable, parent, err)
	}

	// 4. 冲突处理
	overwrite := false
	if _, err := os.Lstat(rec.OriginalPath); err == nil {
		res.Conflict = true
		if resolver == nil {
			resolver = StaticResolver(DecisionCancel)
		}
		decision, err := resolver.Resolve(ctx, rec, rec.OriginalPath)
		if err != nil {
			return nil, err
		}
		res.Decision = decision

		switch decision {
		case DecisionOverwrite:
			overwrite = true
		case DecisionRename:
			res.Destination = renamedPath(rec.OriginalPath, b.now().Format("20060102_150405"))
		default:
			res.Cancelled = true
			b.log.Info("restore cancelled", "id", rec.ID, "path", rec.OriginalPath)
			return res, nil
		}
	}

	// 5. 目标文件系统的剩余空间
	free, err := b.freeBytes(parent)
	if err != nil {
		return nil, err
	}
	if uint64(rec.Size) > free {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d available", ErrInsufficientSpace, rec.OriginalName, rec.Size, free)
	}

	// 6. 覆盖时先删掉已有条目，再移回
	if overwrite {
		if err := os.RemoveAll(rec.OriginalPath); err != nil {
			return nil, fmt.Errorf("%w: cannot replace %s: %v", ErrDestinationUnwritable, rec.OriginalPath, err)
		}
	}
	if err := b.payloads.Take(ctx, rec.ID, res.Destination); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
		}
		return nil, fmt.Errorf("failed to restore %s: %w", rec.OriginalName, err)
	}

	// 7. 权限位与属主，失败只记警告
	if err := fsinfo.RestoreMode(res.Destination, rec.Kind, rec.Mode); err != nil {
		b.log.Warn("could not restore permissions", "id", rec.ID, "path", res.Destination, "error", err)
		res.Warnings = append(res.Warnings, fmt.Errorf("permissions: %w", err))
	}
	if err := fsinfo.RestoreOwner(res.Destination, rec.Owner); err != nil {
		b.log.Warn("could not restore owner", "id", rec.ID, "path", res.Destination, "owner", rec.Owner, "error", err)
		res.Warnings = append(res.Warnings, fmt.Errorf("owner: %w", err))
	}

	// 8. 删除记录
	if err := b.records.Remove(rec.ID); err != nil {
		return res, fmt.Errorf("restored %s but failed to drop its record: %w", res.Destination, err)
	}

	b.log.Info("restored", "id", rec.ID, "path", res.Destination, "size", rec.Size)
	return res, nil
}

// renamedPath 生成 <stem>_<stamp><ext>，仍然冲突时追加 -N
func renamedPath(path, stamp string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// ".bashrc" 这类点文件没有扩展名
		stem, ext = base, ""
	}

	candidate := filepath.Join(dir, stem+"_"+stamp+ext)
	for i := 1; exists(candidate); i++ {
		candidate = filepath.Join(dir, stem+"_"+stamp+"-"+strconv.Itoa(i)+ext)
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
