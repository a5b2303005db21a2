package meta

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"recyclebin/pkg/types"
)

// Header 是 metadata.db 的表头，永远位于文件第一行
var Header = []string{
	"ID",
	"ORIGINAL_NAME",
	"ORIGINAL_PATH",
	"DELETION_DATE",
	"FILE_SIZE",
	"FILE_TYPE",
	"PERMISSIONS",
	"OWNER",
}

// DateLayout 是 DELETION_DATE 列的时间格式 (本地时间)
const DateLayout = "2006-01-02 15:04:05"

// Record 描述一个被捕获条目的原始身份与属性。
// 字段只写一次：Record 只会被创建和删除，不会被原地修改。
type Record struct {
	ID           types.ID
	OriginalName string
	OriginalPath string // 捕获时解析出的绝对路径
	DeletionDate string // 原样保存，读取时再解析，坏数据不会导致整行丢失
	Size         int64
	Kind         types.Kind
	Mode         os.FileMode // 仅权限位
	Owner        string      // "user:group"
}

// DeletedAt 解析删除时间
func (r Record) DeletedAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.DeletionDate, time.Local)
}

// FormatDate 按 DELETION_DATE 的格式输出时间
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ModeString 以八进制输出权限位，例如 "644"
func (r Record) ModeString() string {
	return strconv.FormatUint(uint64(r.Mode.Perm()), 8)
}

func (r Record) fields() []string {
	return []string{
		r.ID.String(),
		r.OriginalName,
		r.OriginalPath,
		r.DeletionDate,
		strconv.FormatInt(r.Size, 10),
		r.Kind.String(),
		r.ModeString(),
		r.Owner,
	}
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.TrimSpace(fields[0]) == Header[0]
}

// parseRecord 把一行 CSV 还原为 Record
func parseRecord(fields []string) (Record, error) {
	if len(fields) != len(Header) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(fields))
	}

	id := types.ID(fields[0])
	if !id.IsValid() {
		return Record{}, fmt.Errorf("invalid id %q", fields[0])
	}

	size, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid size %q: %w", fields[4], err)
	}

	kind, err := types.ParseKind(fields[5])
	if err != nil {
		return Record{}, err
	}

	mode, err := strconv.ParseUint(strings.TrimSpace(fields[6]), 8, 32)
	if err != nil {
		return Record{}, fmt.Errorf("invalid permissions %q: %w", fields[6], err)
	}

	return Record{
		ID:           id,
		OriginalName: fields[1],
		OriginalPath: fields[2],
		DeletionDate: fields[3],
		Size:         size,
		Kind:         kind,
		Mode:         os.FileMode(mode).Perm(),
		Owner:        fields[7],
	}, nil
}
