package recyclebin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"recyclebin/pkg/fsinfo"
	"recyclebin/pkg/meta"
)

// CaptureResult 是单个路径的处理结果，Err 为 nil 表示已进入回收站
type CaptureResult struct {
	Path   string
	Record meta.Record
	Err    error
}

type CaptureReport struct {
	Results []CaptureResult
}

func (r *CaptureReport) Succeeded() []meta.Record {
	var out []meta.Record
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Record)
		}
	}
	return out
}

func (r *CaptureReport) Failed() []*ItemError {
	var out []*ItemError
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, &ItemError{Path: res.Path, Err: res.Err})
		}
	}
	return out
}

// Capture 把 paths 逐个移入回收站。
// 单个条目失败不影响其他条目；全部失败时返回 ErrAllFailed，报告里有每一项的原因。
func (b *Bin) Capture(ctx context.Context, paths []string) (*CaptureReport, error) {
	if len(paths) == 0 {
		b.log.Error("delete called without paths")
		return nil, ErrNoInput
	}

	report := &CaptureReport{}
	succeeded := 0
	for _, p := range paths {
		// 收到信号后不再开始新的条目
		if err := ctx.Err(); err != nil {
			b.log.Warn("delete interrupted", "path", p, "error", err)
			report.Results = append(report.Results, CaptureResult{Path: p, Err: err})
			continue
		}

		rec, err := b.captureOne(ctx, p)
		if err != nil {
			b.log.Error("delete failed", "path", p, "error", err)
			report.Results = append(report.Results, CaptureResult{Path: p, Err: err})
			continue
		}
		b.log.Info("deleted", "id", rec.ID, "path", rec.OriginalPath, "size", rec.Size, "type", rec.Kind)
		report.Results = append(report.Results, CaptureResult{Path: p, Record: rec})
		succeeded++
	}

	if succeeded == 0 {
		return report, ErrAllFailed
	}
	return report, nil
}

func (b *Bin) captureOne(ctx context.Context, p string) (meta.Record, error) {
	// 1. 存在性 (不跟随符号链接)
	abs, err := resolvePath(p)
	if err != nil {
		return meta.Record{}, err
	}
	if _, err := os.Lstat(abs); err != nil {
		if os.IsNotExist(err) {
			return meta.Record{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return meta.Record{}, err
	}

	// 2. 禁止捕获根目录、回收站自身及其内部、回收站的祖先，以及受保护路径
	if err := b.checkForbidden(abs); err != nil {
		return meta.Record{}, err
	}

	// 3. 权限
	fi, err := os.Lstat(abs)
	if err != nil {
		return meta.Record{}, err
	}
	if err := fsinfo.CheckAccess(abs, fsinfo.KindOf(fi)); err != nil {
		return meta.Record{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	// 4. 大小与属性快照
	info, err := fsinfo.Inspect(abs)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return meta.Record{}, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return meta.Record{}, err
	}

	// 5. 容量上限
	used, err := b.occupied()
	if err != nil {
		return meta.Record{}, err
	}
	if used+info.Size > b.cfg.MaxBytes() {
		return meta.Record{}, fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
			ErrQuotaExceeded, p, info.Size, used, b.cfg.MaxBytes())
	}

	// 6. 回收站所在文件系统的剩余空间
	free, err := b.freeBytes(b.cfg.FilesDir())
	if err != nil {
		return meta.Record{}, err
	}
	if uint64(info.Size) > free {
		return meta.Record{}, fmt.Errorf("%w: %s needs %d bytes, %d available", ErrInsufficientSpace, p, info.Size, free)
	}

	// 7. 先写记录再移动，中途失败留下的是孤儿记录，可以由 purge 清掉
	rec := meta.Record{
		ID:           b.ids.Next(),
		OriginalName: filepath.Base(abs),
		OriginalPath: abs,
		DeletionDate: meta.FormatDate(b.now()),
		Size:         info.Size,
		Kind:         info.Kind,
		Mode:         info.Mode,
		Owner:        info.Owner,
	}
	if err := b.records.Append(rec); err != nil {
		return meta.Record{}, err
	}

	// 8. 移动；失败时记录已经写入，错误里带上 ID 供 purge 清理
	if err := b.payloads.Put(ctx, rec.ID, abs, rec.Kind); err != nil {
		orphan := fmt.Sprintf("record %s left without payload, run purge", rec.ID)
		if errors.Is(err, os.ErrPermission) {
			return meta.Record{}, fmt.Errorf("%w: %v (%s)", ErrPermissionDenied, err, orphan)
		}
		return meta.Record{}, fmt.Errorf("failed to move %s into recycle bin (%s): %w", p, orphan, err)
	}
	return rec, nil
}

// checkForbidden 判断 abs 是否不允许被捕获
func (b *Bin) checkForbidden(abs string) error {
	if abs == string(filepath.Separator) {
		return fmt.Errorf("%w: refusing to delete the filesystem root", ErrForbidden)
	}

	bin := b.cfg.BinDir
	if real, err := filepath.EvalSymlinks(bin); err == nil {
		bin = real
	}
	if within(abs, bin) {
		return fmt.Errorf("%w: %s is inside the recycle bin", ErrForbidden, abs)
	}
	if within(bin, abs) {
		return fmt.Errorf("%w: %s contains the recycle bin", ErrForbidden, abs)
	}
	if b.protect.Matches(abs) {
		return fmt.Errorf("%w: %s is protected", ErrForbidden, abs)
	}
	return nil
}

// resolvePath 得到绝对路径。父目录中的符号链接被解析，条目本身不解析，
// 这样捕获一个符号链接时记录的是链接而不是它的目标。
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", p, err)
	}
	if abs == string(filepath.Separator) {
		return abs, nil
	}
	dir, base := filepath.Split(abs)
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	return filepath.Join(dir, base), nil
}

// within 判断 child 是否等于 parent 或位于其下
func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
