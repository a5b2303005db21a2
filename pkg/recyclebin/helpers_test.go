package recyclebin

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recyclebin/pkg/config"
	"recyclebin/pkg/meta"
	"recyclebin/pkg/storage/disk"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// -----------------------------------------------------------------------------

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)

// testEnv 是一个隔离的回收站 + 工作目录
type testEnv struct {
	bin  *Bin
	cfg  *config.Config
	work string // 被捕获文件所在的目录 (已解析符号链接)
	now  time.Time
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupBin(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	root := t.TempDir()
	real, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	cfg := &config.Config{
		BinDir:        filepath.Join(real, "bin"),
		MaxSizeMB:     config.DefaultMaxSizeMB,
		RetentionDays: config.DefaultRetentionDays,
	}
	_, err = config.EnsureLayout(cfg)
	require.NoError(t, err)

	records, err := meta.NewStore(cfg.MetadataPath(), quietLogger())
	require.NoError(t, err)
	payloads, err := disk.NewAdapter(cfg.FilesDir())
	require.NoError(t, err)

	env := &testEnv{cfg: cfg, work: filepath.Join(real, "work"), now: t0}
	require.NoError(t, os.MkdirAll(env.work, 0o755))

	base := []Option{
		WithClock(func() time.Time { return env.now }),
		WithFreeSpace(func(string) (uint64, error) { return 1 << 40, nil }),
	}
	env.bin = New(cfg, records, payloads, quietLogger(), append(base, opts...)...)
	return env
}

// writeFile 在工作目录下写一个文件，返回绝对路径
func (e *testEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(e.work, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// mustCapture 捕获并要求全部成功
func (e *testEnv) mustCapture(t *testing.T, paths ...string) []meta.Record {
	t.Helper()
	report, err := e.bin.Capture(context.Background(), paths)
	require.NoError(t, err)
	require.Empty(t, report.Failed())
	return report.Succeeded()
}

func (e *testEnv) mustScan(t *testing.T) []meta.Record {
	t.Helper()
	records, err := e.bin.records.Scan()
	require.NoError(t, err)
	return records
}

func (e *testEnv) payloadNames(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.cfg.FilesDir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
