package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recyclebin/pkg/app"
	"recyclebin/pkg/config"
	"recyclebin/pkg/lock"
	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/render"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupIntegrationEnv 搭建一个使用真实文件系统的回收站，并注入全局变量 RB
func setupIntegrationEnv(t *testing.T) (*app.App, string) {
	t.Helper()
	tmpDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	viper.Set(config.KeyBinDir, filepath.Join(tmpDir, ".recycle_bin"))
	t.Cleanup(func() { viper.Set(config.KeyBinDir, nil) })

	application, err := app.NewApp()
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	// cmd 包依赖全局变量 RB，测试里临时覆盖它
	RB = application
	return application, tmpDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIntegration_DeleteListRestoreEmpty(t *testing.T) {
	rb, tmpDir := setupIntegrationEnv(t)
	ctx := context.Background()

	a := filepath.Join(tmpDir, "a.txt")
	writeFile(t, a, "0123456789")
	writeFile(t, filepath.Join(tmpDir, "dir", "b.txt"), "01234")

	// 1. rb delete a.txt dir missing
	var out, errOut bytes.Buffer
	err := runDelete(ctx, &out, &errOut, []string{a, filepath.Join(tmpDir, "dir"), filepath.Join(tmpDir, "missing")})
	require.NoError(t, err, "partial failure is not a command failure")
	assert.Contains(t, out.String(), "2 deleted, 1 failed")
	assert.Contains(t, errOut.String(), "missing")
	assert.NoFileExists(t, a)

	// 2. rb list
	out.Reset()
	require.NoError(t, runList(ctx, &out, false))
	assert.Contains(t, out.String(), "Total: 2 items, 15B")

	// 3. rb search a.txt
	out.Reset()
	require.NoError(t, runSearch(ctx, &out, "a.txt", false))
	assert.Contains(t, out.String(), "Found 1 matching items")

	out.Reset()
	require.NoError(t, runSearch(ctx, &out, "*.zip", false))
	assert.Contains(t, out.String(), "No matches found")

	// 4. rb restore a.txt
	out.Reset()
	require.NoError(t, runRestore(ctx, &out, "a.txt", recyclebin.StaticResolver(recyclebin.DecisionCancel)))
	assert.Contains(t, out.String(), "Restored: "+a)
	assert.FileExists(t, a)

	// 5. rb empty --force
	out.Reset()
	require.NoError(t, runEmpty(ctx, &out, recyclebin.EmptyOptions{Force: true}))
	records, _, err := rb.Bin.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	out.Reset()
	require.NoError(t, runList(ctx, &out, true))
	assert.Equal(t, render.EmptyMessage+"\n", out.String())

	// 6. 日志里每个操作都有一行
	logData, err := os.ReadFile(rb.Config.LogPath())
	require.NoError(t, err)
	log := string(logData)
	assert.Contains(t, log, "[INFO] deleted")
	assert.Contains(t, log, "[ERROR] delete failed")
	assert.Contains(t, log, "[INFO] restored")
	assert.Contains(t, log, "[INFO] emptied recycle bin")
}

func TestIntegration_DeleteAllFailedIsAnError(t *testing.T) {
	_, tmpDir := setupIntegrationEnv(t)

	var out, errOut bytes.Buffer
	err := runDelete(context.Background(), &out, &errOut, []string{filepath.Join(tmpDir, "nope")})
	assert.ErrorIs(t, err, recyclebin.ErrAllFailed)

	err = runDelete(context.Background(), &out, &errOut, nil)
	assert.ErrorIs(t, err, recyclebin.ErrNoInput)
}

func TestIntegration_BusyLock(t *testing.T) {
	rb, tmpDir := setupIntegrationEnv(t)
	a := filepath.Join(tmpDir, "a.txt")
	writeFile(t, a, "x")

	// 模拟另一个进程持有锁
	guard, err := lock.Acquire(rb.Config.LockPath())
	require.NoError(t, err)
	defer guard.Release()

	var out, errOut bytes.Buffer
	err = runDelete(context.Background(), &out, &errOut, []string{a})
	assert.ErrorIs(t, err, lock.ErrBusy)
	assert.FileExists(t, a)

	// 只读命令不受影响
	require.NoError(t, runList(context.Background(), &out, false))
}

func TestIntegration_PurgeAndPreview(t *testing.T) {
	rb, tmpDir := setupIntegrationEnv(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(tmpDir, "keep.txt"), "line one\nline two\n")
	writeFile(t, filepath.Join(tmpDir, "lost.txt"), "gone")

	var out, errOut bytes.Buffer
	require.NoError(t, runDelete(ctx, &out, &errOut, []string{
		filepath.Join(tmpDir, "keep.txt"),
		filepath.Join(tmpDir, "lost.txt"),
	}))
	records, _, err := rb.Bin.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	out.Reset()
	require.NoError(t, runPreview(ctx, &out, records[0].ID))
	assert.Contains(t, out.String(), "line one\nline two")

	require.NoError(t, os.Remove(rb.Payloads.Path(records[1].ID)))
	out.Reset()
	require.NoError(t, runPurge(ctx, &out))
	assert.Contains(t, out.String(), "Dropped record without payload: lost.txt")

	out.Reset()
	require.NoError(t, runPurge(ctx, &out))
	assert.Contains(t, out.String(), "no corruption found")
}

func TestIntegration_QuotaAndStats(t *testing.T) {
	_, tmpDir := setupIntegrationEnv(t)
	ctx := context.Background()

	writeFile(t, filepath.Join(tmpDir, "a.txt"), strings.Repeat("a", 100))
	var out, errOut bytes.Buffer
	require.NoError(t, runDelete(ctx, &out, &errOut, []string{filepath.Join(tmpDir, "a.txt")}))

	out.Reset()
	require.NoError(t, runQuota(ctx, &out, true))
	assert.Contains(t, out.String(), "100B")
	assert.NotContains(t, out.String(), "auto-cleanup")

	out.Reset()
	require.NoError(t, runStats(ctx, &out))
	assert.Contains(t, out.String(), "a.txt")

	out.Reset()
	require.NoError(t, runCleanup(ctx, &out))
	assert.Contains(t, out.String(), "No items older than 30 days")
}

func TestIntegration_Init(t *testing.T) {
	rb, _ := setupIntegrationEnv(t)

	// 1. 第一次打开时新建了回收站
	var out bytes.Buffer
	require.NoError(t, runInit(&out))
	assert.Contains(t, out.String(), "Initialized recycle bin in "+rb.Config.BinDir)
	assert.Contains(t, out.String(), "retention: 30 days")

	// 2. 再次打开同一个目录
	reopened, err := app.NewApp()
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	RB = reopened

	out.Reset()
	require.NoError(t, runInit(&out))
	assert.Contains(t, out.String(), "already exists in "+rb.Config.BinDir)
}

func TestRootCommand_WiresApp(t *testing.T) {
	_, tmpDir := setupIntegrationEnv(t)
	writeFile(t, filepath.Join(tmpDir, "x.txt"), "x")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"delete", filepath.Join(tmpDir, "x.txt")})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "Moved to recycle bin")

	out.Reset()
	rootCmd.SetArgs([]string{"search", "x.txt"})
	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "Found 1 matching items")
}

func TestExecute_ClosesAppWhenCommandFails(t *testing.T) {
	setupIntegrationEnv(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	rootCmd.SetArgs([]string{"preview", "1_1"})
	err := Execute()
	require.ErrorIs(t, err, recyclebin.ErrNotFound)

	// 日志文件已经关闭，之后的写入不会落盘
	before, err := os.ReadFile(RB.Config.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(before), "[ERROR] preview failed")

	RB.Log.Info("written after close")
	after, err := os.ReadFile(RB.Config.LogPath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
