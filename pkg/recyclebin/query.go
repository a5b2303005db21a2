package recyclebin

import (
	"context"
	"fmt"
	"strings"

	"recyclebin/pkg/meta"

	glob "github.com/bmatcuk/doublestar/v4"
)

// Summary 是一组记录的汇总
type Summary struct {
	Count     int
	TotalSize int64
}

func summarize(records []meta.Record) Summary {
	s := Summary{Count: len(records)}
	for _, rec := range records {
		s.TotalSize += rec.Size
	}
	return s
}

// List 按存储顺序返回全部记录
func (b *Bin) List(ctx context.Context) ([]meta.Record, Summary, error) {
	records, err := b.records.Scan()
	if err != nil {
		b.log.Error("list failed", "error", err)
		return nil, Summary{}, err
	}
	return records, summarize(records), nil
}

type SearchOptions struct {
	IgnoreCase bool
}

// Search 返回原始文件名或原始路径匹配 pattern 的记录。
//
// 不含通配符的 pattern 做子串匹配；含 * ? [ { 的 pattern 按 glob 匹配整个文件名或整个路径，
// 其中 ** 可以跨越目录。
func (b *Bin) Search(ctx context.Context, pattern string, opts SearchOptions) ([]meta.Record, Summary, error) {
	if strings.TrimSpace(pattern) == "" {
		b.log.Error("search failed", "error", ErrBadPattern)
		return nil, Summary{}, fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}
	m, err := NewMatcher(pattern, opts.IgnoreCase)
	if err != nil {
		b.log.Error("search failed", "pattern", pattern, "error", err)
		return nil, Summary{}, err
	}

	records, err := b.records.Scan()
	if err != nil {
		b.log.Error("search failed", "pattern", pattern, "error", err)
		return nil, Summary{}, err
	}

	var hits []meta.Record
	for _, rec := range records {
		if m.Match(rec) {
			hits = append(hits, rec)
		}
	}
	return hits, summarize(hits), nil
}

// Matcher 判断记录是否匹配搜索模式
type Matcher struct {
	pattern    string
	isGlob     bool
	ignoreCase bool
}

func NewMatcher(pattern string, ignoreCase bool) (*Matcher, error) {
	m := &Matcher{pattern: pattern, ignoreCase: ignoreCase}
	if ignoreCase {
		m.pattern = strings.ToLower(pattern)
	}
	m.isGlob = strings.ContainsAny(pattern, "*?[{")
	if m.isGlob && !glob.ValidatePattern(m.pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return m, nil
}

func (m *Matcher) Match(rec meta.Record) bool {
	return m.matchString(rec.OriginalName) || m.matchString(rec.OriginalPath)
}

func (m *Matcher) matchString(s string) bool {
	if m.ignoreCase {
		s = strings.ToLower(s)
	}
	if !m.isGlob {
		return strings.Contains(s, m.pattern)
	}
	ok, err := glob.Match(m.pattern, s)
	return err == nil && ok
}
