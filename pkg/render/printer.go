// Package render 负责把回收站操作的结果输出给用户
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"recyclebin/pkg/meta"
	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/types"

	"github.com/dustin/go-humanize"
)

const (
	EmptyMessage   = "Recycle bin is empty."
	NoMatchMessage = "No matches found for %q."
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize 以 1024 为底整除取整，单位最大到 TB
func FormatSize(n int64) string {
	unit := 0
	for n >= 1024 && unit < len(sizeUnits)-1 {
		n /= 1024
		unit++
	}
	return strconv.FormatInt(n, 10) + sizeUnits[unit]
}

// PrintList 输出列表。detailed 为 true 时输出记录的全部字段。
func PrintList(w io.Writer, records []meta.Record, sum recyclebin.Summary, detailed bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	if detailed {
		printDetailed(w, records)
	} else {
		printRecords(w, records)
	}
	fmt.Fprintf(w, "\nTotal: %d items, %s\n", sum.Count, FormatSize(sum.TotalSize))
}

// PrintSearch 输出搜索结果；没有匹配不是错误
func PrintSearch(w io.Writer, pattern string, records []meta.Record, sum recyclebin.Summary) {
	if len(records) == 0 {
		fmt.Fprintf(w, NoMatchMessage+"\n", pattern)
		return
	}
	printRecords(w, records)
	fmt.Fprintf(w, "\nFound %d matching items, %s\n", sum.Count, FormatSize(sum.TotalSize))
}

func printRecords(w io.Writer, records []meta.Record) {
	t := newTable("ID", "Name", "Deleted", "Size")
	for _, rec := range records {
		t.add(rec.ID.String(), rec.OriginalName, rec.DeletionDate, FormatSize(rec.Size))
	}
	t.render(w)
}

func printDetailed(w io.Writer, records []meta.Record) {
	t := newTable("ID", "Name", "Path", "Deleted", "Size", "Type", "Mode", "Owner")
	for _, rec := range records {
		t.add(
			rec.ID.String(),
			rec.OriginalName,
			rec.OriginalPath,
			rec.DeletionDate,
			FormatSize(rec.Size),
			string(rec.Kind),
			rec.ModeString(),
			rec.Owner,
		)
	}
	t.render(w)
}

// PrintCapture 输出 delete 的逐项结果，失败项写到 errw
func PrintCapture(w, errw io.Writer, report *recyclebin.CaptureReport) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(errw, "Error: %s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Fprintf(w, "Moved to recycle bin: %s (%s)\n", res.Path, res.Record.ID)
	}
	ok, failed := len(report.Succeeded()), len(report.Failed())
	if ok+failed > 1 {
		fmt.Fprintf(w, "\n%d deleted, %d failed\n", ok, failed)
	}
}

func PrintRecall(w io.Writer, res *recyclebin.RecallResult) {
	if res == nil {
		return
	}
	if res.Cancelled {
		fmt.Fprintf(w, "Restore cancelled: %s already exists\n", res.Record.OriginalPath)
		return
	}
	fmt.Fprintf(w, "Restored: %s\n", res.Destination)
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "Warning: %v\n", warn)
	}
}

func PrintEmpty(w io.Writer, res *recyclebin.EmptyResult) {
	switch {
	case res == nil:
		return
	case res.Cancelled:
		fmt.Fprintln(w, "Operation cancelled.")
	case len(res.Removed) == 0 && res.Orphans == 0:
		fmt.Fprintln(w, EmptyMessage)
	case len(res.Removed) == 0:
		// 记录表是空的，只清掉了孤儿 payload
	case len(res.Removed) == 1:
		rec := res.Removed[0]
		fmt.Fprintf(w, "Permanently deleted: %s (%s)\n", rec.OriginalName, rec.ID)
	default:
		fmt.Fprintf(w, "Permanently deleted %d items (%s)\n", len(res.Removed), FormatSize(res.Bytes))
	}
	if !res.Cancelled && res.Orphans > 0 {
		fmt.Fprintf(w, "Removed %d orphaned payloads without records\n", res.Orphans)
	}
}

func PrintCleanup(w io.Writer, report *recyclebin.CleanupReport) {
	if report == nil {
		return
	}
	if len(report.Removed) == 0 {
		fmt.Fprintf(w, "No items older than %d days.\n", report.RetentionDays)
	} else {
		fmt.Fprintf(w, "Removed %d items older than %d days (%s freed)\n",
			len(report.Removed), report.RetentionDays, FormatSize(report.Bytes))
	}
	if report.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d items with unreadable deletion dates\n", report.Skipped)
	}
}

func PrintPurge(w io.Writer, report *recyclebin.PurgeReport) {
	if report == nil {
		return
	}
	if len(report.Dropped) == 0 {
		fmt.Fprintf(w, "Checked %d records, no corruption found.\n", report.Checked)
		return
	}
	for _, rec := range report.Dropped {
		fmt.Fprintf(w, "Dropped record without payload: %s (%s)\n", rec.OriginalName, rec.ID)
	}
	fmt.Fprintf(w, "\nChecked %d records, dropped %d\n", report.Checked, len(report.Dropped))
}

func PrintQuota(w io.Writer, q *recyclebin.QuotaReport) {
	if q == nil {
		return
	}
	keyValues(w, [][2]string{
		{"Items", humanize.Comma(int64(q.Items))},
		{"Used", FormatSize(q.Used)},
		{"Limit", FormatSize(q.Max)},
		{"Usage", fmt.Sprintf("%.1f%%", q.Percent)},
	})
	if q.Exceeded {
		fmt.Fprintln(w, "\nWarning: recycle bin quota exceeded")
	}
}

// PrintStats 输出概况；now 用于计算相对时间
func PrintStats(w io.Writer, st *recyclebin.Stats, now time.Time) {
	if st == nil {
		return
	}
	if st.Items == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}

	pairs := [][2]string{
		{"Items", humanize.Comma(int64(st.Items))},
		{"Total size", FormatSize(st.TotalSize)},
		{"Limit", FormatSize(st.Max)},
		{"Usage", fmt.Sprintf("%.1f%%", st.Percent)},
	}
	if st.Oldest != nil {
		pairs = append(pairs, [2]string{"Oldest", fmt.Sprintf("%s (%s)", st.Oldest.OriginalName, humanize.RelTime(st.OldestAt, now, "ago", "from now"))})
	}
	if st.Newest != nil {
		pairs = append(pairs, [2]string{"Newest", fmt.Sprintf("%s (%s)", st.Newest.OriginalName, humanize.RelTime(st.NewestAt, now, "ago", "from now"))})
	}
	keyValues(w, pairs)

	kinds := make([]string, 0, len(st.ByKind))
	for k := range st.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprintln(w)
	t := newTable("Type", "Count", "Size")
	for _, k := range kinds {
		kind := types.Kind(k)
		t.add(k, humanize.Comma(int64(st.ByKind[kind])), FormatSize(st.SizeByKind[kind]))
	}
	t.render(w)
}

func PrintPreview(w io.Writer, p *recyclebin.Preview) {
	if p == nil {
		return
	}
	rec := p.Record
	keyValues(w, [][2]string{
		{"ID", rec.ID.String()},
		{"Name", rec.OriginalName},
		{"Path", rec.OriginalPath},
		{"Deleted", rec.DeletionDate},
		{"Size", FormatSize(rec.Size)},
		{"Type", string(rec.Kind)},
		{"Mode", rec.ModeString()},
		{"Owner", rec.Owner},
	})
	fmt.Fprintln(w)

	switch rec.Kind {
	case types.KindSymlink:
		fmt.Fprintf(w, "-> %s\n", p.LinkTarget)
	case types.KindDirectory:
		if p.Total == 0 {
			fmt.Fprintln(w, "(empty directory)")
			return
		}
		for _, name := range p.Entries {
			fmt.Fprintf(w, "  %s\n", name)
		}
		if rest := p.Total - len(p.Entries); rest > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", rest)
		}
	default:
		if p.Binary {
			fmt.Fprintf(w, "(binary content: %s)\n", p.MIME)
			return
		}
		fmt.Fprintln(w, strings.Join(p.Lines, "\n"))
		if p.Truncated {
			fmt.Fprintln(w, "...")
		}
	}
}
