package meta

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"recyclebin/pkg/types"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// -----------------------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupStore 在临时目录中创建一个全新的记录表
func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "metadata.db"), quietLogger())
	require.NoError(t, err)
	return s
}

func mockRecord(id, name string) Record {
	return Record{
		ID:           types.ID(id),
		OriginalName: name,
		OriginalPath: "/home/alice/" + name,
		DeletionDate: "2026-01-02 03:04:05",
		Size:         10,
		Kind:         types.KindFile,
		Mode:         0o644,
		Owner:        "alice:staff",
	}
}

// mustAppend 追加记录，失败直接终止测试
func mustAppend(t *testing.T, s *Store, recs ...Record) {
	t.Helper()
	for _, rec := range recs {
		require.NoError(t, s.Append(rec))
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
