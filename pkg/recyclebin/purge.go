package recyclebin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recyclebin/pkg/meta"
	"recyclebin/pkg/storage"
	"recyclebin/pkg/types"
)

type EmptyOptions struct {
	ID      types.ID  // 为空时清空整个回收站
	Force   bool      // 跳过确认
	Confirm Confirmer // Force 为 false 时必须提供
}

type EmptyResult struct {
	Cancelled bool
	Removed   []meta.Record
	Bytes     int64
	Orphans   int // 没有记录的 payload
}

// Empty 永久删除一个或全部条目
func (b *Bin) Empty(ctx context.Context, opts EmptyOptions) (*EmptyResult, error) {
	var (
		res *EmptyResult
		err error
	)
	if opts.ID.IsZero() {
		res, err = b.emptyAll(ctx, opts)
	} else {
		res, err = b.emptyOne(ctx, opts)
	}
	if err != nil {
		b.log.Error("empty failed", "id", opts.ID, "error", err)
	}
	return res, err
}

func (b *Bin) confirm(opts EmptyOptions, label string) (bool, error) {
	if opts.Force {
		return true, nil
	}
	if opts.Confirm == nil {
		return false, errors.New("confirmation required: use --force in non-interactive mode")
	}
	return opts.Confirm.Confirm(label)
}

func (b *Bin) emptyAll(ctx context.Context, opts EmptyOptions) (*EmptyResult, error) {
	records, err := b.records.Scan()
	if err != nil {
		return nil, err
	}
	payloadIDs, err := b.payloads.List(ctx)
	if err != nil {
		return nil, err
	}
	res := &EmptyResult{}
	if len(records) == 0 && len(payloadIDs) == 0 {
		return res, nil
	}

	ok, err := b.confirm(opts, fmt.Sprintf("Permanently delete all %d items", len(records)))
	if err != nil {
		return nil, err
	}
	if !ok {
		res.Cancelled = true
		b.log.Info("empty cancelled")
		return res, nil
	}

	// 1. 逐条删除 payload，删除失败的记录保留
	var cleared []types.ID
	var failed []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			failed = append(failed, err)
			break
		}
		if err := b.payloads.Delete(ctx, rec.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			b.log.Warn("could not remove payload", "id", rec.ID, "error", err)
			failed = append(failed, &ItemError{Path: rec.OriginalPath, Err: err})
			continue
		}
		cleared = append(cleared, rec.ID)
		res.Removed = append(res.Removed, rec)
		res.Bytes += rec.Size
	}

	// 2. 全部成功时顺便清理孤儿 payload 并重置记录表
	if len(failed) == 0 {
		n, err := b.payloads.Clear(ctx)
		if err != nil {
			b.log.Warn("could not remove orphaned payloads", "error", err)
		}
		res.Orphans = n
		if err := b.records.Reset(); err != nil {
			return res, err
		}
	} else if _, err := b.records.RemoveMany(cleared); err != nil {
		return res, err
	}

	b.log.Info("emptied recycle bin", "items", len(res.Removed), "bytes", res.Bytes, "orphans", res.Orphans)
	if len(failed) > 0 {
		return res, fmt.Errorf("%d items could not be removed: %w", len(failed), errors.Join(failed...))
	}
	return res, nil
}

func (b *Bin) emptyOne(ctx context.Context, opts EmptyOptions) (*EmptyResult, error) {
	rec, err := b.records.FindByID(opts.ID)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, fmt.Errorf("%w: no item with id %s", ErrNotFound, opts.ID)
		}
		return nil, err
	}

	ok, err := b.confirm(opts, fmt.Sprintf("Permanently delete %s (%s)", rec.OriginalName, rec.ID))
	if err != nil {
		return nil, err
	}
	res := &EmptyResult{}
	if !ok {
		res.Cancelled = true
		b.log.Info("empty cancelled", "id", rec.ID)
		return res, nil
	}

	if err := b.payloads.Delete(ctx, rec.ID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		b.log.Warn("payload already missing, dropping record only", "id", rec.ID)
	}
	if err := b.records.Remove(rec.ID); err != nil {
		return nil, err
	}

	res.Removed = []meta.Record{rec}
	res.Bytes = rec.Size
	b.log.Info("permanently deleted", "id", rec.ID, "path", rec.OriginalPath, "size", rec.Size)
	return res, nil
}

// CleanupReport 描述一次过期清理
type CleanupReport struct {
	Cutoff        time.Time
	RetentionDays int
	Removed       []meta.Record
	Bytes         int64
	Skipped       int // 删除时间无法解析的记录
}

// Cleanup 永久删除删除时间早于保留期的条目
func (b *Bin) Cleanup(ctx context.Context) (*CleanupReport, error) {
	report, err := b.cleanup(ctx)
	if err != nil {
		b.log.Error("auto-cleanup failed", "error", err)
	}
	return report, err
}

func (b *Bin) cleanup(ctx context.Context) (*CleanupReport, error) {
	days := b.cfg.RetentionDays
	report := &CleanupReport{
		RetentionDays: days,
		Cutoff:        b.now().Add(-time.Duration(days) * 24 * time.Hour),
	}

	records, err := b.records.Scan()
	if err != nil {
		return nil, err
	}

	var expired []types.ID
	var failed []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			failed = append(failed, err)
			break
		}
		deletedAt, err := rec.DeletedAt()
		if err != nil {
			report.Skipped++
			b.log.Warn("skipping record with unparsable deletion date", "id", rec.ID, "date", rec.DeletionDate)
			continue
		}
		if !deletedAt.Before(report.Cutoff) {
			continue
		}
		if err := b.payloads.Delete(ctx, rec.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			b.log.Warn("could not remove expired payload", "id", rec.ID, "error", err)
			failed = append(failed, &ItemError{Path: rec.OriginalPath, Err: err})
			continue
		}
		expired = append(expired, rec.ID)
		report.Removed = append(report.Removed, rec)
		report.Bytes += rec.Size
	}

	if _, err := b.records.RemoveMany(expired); err != nil {
		return report, err
	}

	b.log.Info("auto-cleanup finished", "retention_days", days, "removed", len(report.Removed), "bytes", report.Bytes)
	if len(failed) > 0 {
		return report, fmt.Errorf("%d expired items could not be removed: %w", len(failed), errors.Join(failed...))
	}
	return report, nil
}

// PurgeReport 描述一次损坏清理
type PurgeReport struct {
	Checked int
	Dropped []meta.Record
}

// PurgeCorrupted 删除 payload 已经不存在的记录。重复执行是幂等的。
func (b *Bin) PurgeCorrupted(ctx context.Context) (*PurgeReport, error) {
	report, err := b.purgeCorrupted(ctx)
	if err != nil {
		b.log.Error("purge failed", "error", err)
	}
	return report, err
}

func (b *Bin) purgeCorrupted(ctx context.Context) (*PurgeReport, error) {
	records, err := b.records.Scan()
	if err != nil {
		return nil, err
	}

	report := &PurgeReport{Checked: len(records)}
	var orphaned []types.ID
	for _, rec := range records {
		ok, err := b.payloads.Has(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		b.log.Warn("dropping record without payload", "id", rec.ID, "path", rec.OriginalPath)
		orphaned = append(orphaned, rec.ID)
		report.Dropped = append(report.Dropped, rec)
	}

	if _, err := b.records.RemoveMany(orphaned); err != nil {
		return nil, err
	}
	b.log.Info("purge finished", "checked", report.Checked, "dropped", len(report.Dropped))
	return report, nil
}
