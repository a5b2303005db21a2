package recyclebin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"recyclebin/pkg/meta"
	"recyclebin/pkg/types"
)

const (
	previewLines   = 10
	previewEntries = 20
	sniffLen       = 512
)

// QuotaReport 是容量使用情况
type QuotaReport struct {
	Items    int
	Used     int64
	Max      int64
	Percent  float64
	Exceeded bool
}

// Quota 只读地统计占用与上限
func (b *Bin) Quota(ctx context.Context) (*QuotaReport, error) {
	records, err := b.records.Scan()
	if err != nil {
		b.log.Error("quota check failed", "error", err)
		return nil, err
	}
	s := summarize(records)
	q := &QuotaReport{
		Items:   s.Count,
		Used:    s.TotalSize,
		Max:     b.cfg.MaxBytes(),
		Percent: percent(s.TotalSize, b.cfg.MaxBytes()),
	}
	q.Exceeded = q.Used > q.Max
	if q.Exceeded {
		b.log.Warn("recycle bin quota exceeded", "used", q.Used, "max", q.Max)
	}
	return q, nil
}

// Stats 是回收站概况
type Stats struct {
	Items      int
	TotalSize  int64
	Max        int64
	Percent    float64
	ByKind     map[types.Kind]int
	SizeByKind map[types.Kind]int64
	Oldest     *meta.Record
	OldestAt   time.Time
	Newest     *meta.Record
	NewestAt   time.Time
}

func (b *Bin) Stats(ctx context.Context) (*Stats, error) {
	records, err := b.records.Scan()
	if err != nil {
		b.log.Error("stats failed", "error", err)
		return nil, err
	}

	st := &Stats{
		Items:      len(records),
		Max:        b.cfg.MaxBytes(),
		ByKind:     make(map[types.Kind]int),
		SizeByKind: make(map[types.Kind]int64),
	}
	for i := range records {
		rec := records[i]
		st.TotalSize += rec.Size
		st.ByKind[rec.Kind]++
		st.SizeByKind[rec.Kind] += rec.Size

		// 删除时间损坏的记录不参与最早/最新统计
		at, err := rec.DeletedAt()
		if err != nil {
			continue
		}
		if st.Oldest == nil || at.Before(st.OldestAt) {
			st.Oldest, st.OldestAt = &records[i], at
		}
		if st.Newest == nil || at.After(st.NewestAt) {
			st.Newest, st.NewestAt = &records[i], at
		}
	}
	st.Percent = percent(st.TotalSize, st.Max)
	return st, nil
}

// Preview 是单个条目的详细信息与内容预览
type Preview struct {
	Record      meta.Record
	PayloadPath string

	// 文件
	MIME      string
	Binary    bool
	Lines     []string
	Truncated bool

	// 目录
	Entries []string
	Total   int

	// 符号链接
	LinkTarget string
}

// Preview 按 ID 查看条目，不移动任何东西
func (b *Bin) Preview(ctx context.Context, id types.ID) (*Preview, error) {
	p, err := b.preview(ctx, id)
	if err != nil {
		b.log.Error("preview failed", "id", id, "error", err)
	}
	return p, err
}

func (b *Bin) preview(ctx context.Context, id types.ID) (*Preview, error) {
	rec, err := b.records.FindByID(id)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, fmt.Errorf("%w: no item with id %s", ErrNotFound, id)
		}
		return nil, err
	}
	ok, err := b.payloads.Has(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrPayloadMissing, rec.OriginalName, rec.ID)
	}

	p := &Preview{Record: rec, PayloadPath: b.payloads.Path(rec.ID)}
	switch rec.Kind {
	case types.KindSymlink:
		target, err := os.Readlink(p.PayloadPath)
		if err != nil {
			return nil, err
		}
		p.LinkTarget = target
	case types.KindDirectory:
		entries, err := os.ReadDir(p.PayloadPath)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		p.Total = len(names)
		if len(names) > previewEntries {
			names = names[:previewEntries]
		}
		p.Entries = names
	default:
		if err := peekFile(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// peekFile 嗅探 MIME 类型，文本文件读取前几行
func peekFile(p *Preview) error {
	f, err := os.Open(p.PayloadPath)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	head = head[:n]
	p.MIME = http.DetectContentType(head)
	if !strings.HasPrefix(p.MIME, "text/") || !utf8.Valid(trimPartialRune(head)) {
		p.Binary = true
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(p.Lines) == previewLines {
			p.Truncated = true
			break
		}
		p.Lines = append(p.Lines, scanner.Text())
	}
	return scanner.Err()
}

// trimPartialRune 去掉被 512 字节截断的半个 UTF-8 字符
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

func percent(used, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(used) * 100 / float64(max)
}
