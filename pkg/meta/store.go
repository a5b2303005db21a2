package meta

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"recyclebin/pkg/types"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrStoreUnwritable = errors.New("record store is not writable")
)

// Store 是 metadata.db 的访问层。
// Append 与 Remove 之间没有互斥，调用方需要持有回收站锁 (pkg/lock) 来串行化写操作。
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore 打开 (必要时创建) 记录表，保证表头存在
func NewStore(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, log: log}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err), err == nil && info.Size() == 0:
		if err := s.Reset(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat record store: %w", err)
	}

	return s, nil
}

func (s *Store) Path() string { return s.path }

// Append 追加一行记录
func (s *Store) Append(rec Record) error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	defer f.Close()

	var buf bytes.Buffer

	// 文件被手工编辑过、末尾没有换行时，先补一个，避免新行粘在上一行后面
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if info.Size() == 0 {
		writeRow(&buf, Header)
	} else {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			buf.WriteByte('\n')
		}
	}

	writeRow(&buf, rec.fields())

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	return nil
}

// Scan 按文件顺序返回所有记录。
// 无法解析的行会被跳过并记录一条警告，但 Remove 时会原样保留它们。
func (s *Store) Scan() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record store: %w", err)
	}

	var records []Record
	err = eachRow(data, func(line int, fields []string, _ []byte, rowErr error) {
		if rowErr != nil {
			s.log.Warn("skipping unparsable record row", "line", line, "error", rowErr)
			return
		}
		if fields == nil || (line == 1 && isHeader(fields)) {
			return
		}
		rec, perr := parseRecord(fields)
		if perr != nil {
			s.log.Warn("skipping malformed record row", "line", line, "error", perr)
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindBy 先按 ID 精确匹配，再按原始文件名精确匹配，均按文件顺序取第一个
func (s *Store) FindBy(idOrName string) (Record, error) {
	records, err := s.Scan()
	if err != nil {
		return Record{}, err
	}

	for _, rec := range records {
		if rec.ID.String() == idOrName {
			return rec, nil
		}
	}
	for _, rec := range records {
		if rec.OriginalName == idOrName {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, idOrName)
}

// FindByID 只按 ID 查找
func (s *Store) FindByID(id types.ID) (Record, error) {
	records, err := s.Scan()
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Remove 删除指定 ID 的那一行，其余行 (包括表头和坏行) 逐字节保留
func (s *Store) Remove(id types.ID) error {
	n, err := s.RemoveMany([]types.ID{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// RemoveMany 一次重写删除多行，返回实际删除的行数
func (s *Store) RemoveMany(ids []types.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[types.ID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read record store: %w", err)
	}

	var out bytes.Buffer
	removed := 0
	sawHeader := false

	err = eachRow(data, func(line int, fields []string, raw []byte, _ error) {
		if line == 1 && isHeader(fields) {
			sawHeader = true
			out.Write(raw)
			return
		}
		if !sawHeader {
			// 表头丢失时补回来
			writeRow(&out, Header)
			sawHeader = true
		}
		if len(fields) > 0 {
			if _, ok := drop[types.ID(fields[0])]; ok {
				removed++
				return
			}
		}
		out.Write(raw)
	})
	if err != nil {
		return 0, err
	}

	if removed == 0 {
		return 0, nil
	}
	if !sawHeader {
		writeRow(&out, Header)
	}
	if b := out.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		out.WriteByte('\n')
	}

	if err := s.writeAtomic(out.Bytes()); err != nil {
		return 0, err
	}
	return removed, nil
}

// Reset 把记录表重置为只有表头
func (s *Store) Reset() error {
	var buf bytes.Buffer
	writeRow(&buf, Header)
	return s.writeAtomic(buf.Bytes())
}

// writeAtomic 先写临时文件再 Rename。
// 这样中途被打断时，metadata.db 要么是旧内容，要么是新内容，不会出现半截文件。
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".metadata-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	// Rename 成功后这里的删除是无害的
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnwritable, err)
	}
	return nil
}

// eachRow 逐行解析 CSV，同时给出该行在原文件中的原始字节。
// line 是逻辑行号 (从 1 开始)，多行字段算作一行；fields 为 nil 表示只有原始字节 (解析失败或文件尾残余)。
func eachRow(data []byte, fn func(line int, fields []string, raw []byte, err error)) error {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	line := 0
	for {
		start := r.InputOffset()
		fields, err := r.Read()
		end := r.InputOffset()
		if err == io.EOF {
			// 末尾的空行等残余字节原样带上
			if end > start {
				fn(line+1, nil, data[start:end], nil)
			}
			return nil
		}
		line++
		if err != nil {
			if end <= start {
				return fmt.Errorf("failed to parse record store at row %d: %w", line, err)
			}
			fn(line, nil, data[start:end], err)
			continue
		}
		fn(line, fields, data[start:end], nil)
	}
}

func writeRow(buf *bytes.Buffer, fields []string) {
	w := csv.NewWriter(buf)
	// csv.Writer 写 bytes.Buffer 不会失败
	_ = w.Write(fields)
	w.Flush()
}
