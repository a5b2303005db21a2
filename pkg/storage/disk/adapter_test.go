package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"recyclebin/pkg/storage"
	"recyclebin/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewAdapter(filepath.Join(tmpDir, "files"))
	require.NoError(t, err)
	return store, tmpDir
}

func TestDiskAdapter_FileLifecycle(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	src := filepath.Join(tmpDir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o640))

	// 1. Put：原文件应被移走
	require.NoError(t, store.Put(ctx, "1_1", src, types.KindFile))
	_, err := os.Lstat(src)
	assert.True(t, os.IsNotExist(err), "source should be gone after Put")

	content, err := os.ReadFile(filepath.Join(tmpDir, "files", "1_1"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	// 2. Has
	ok, err := store.Has(ctx, "1_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has(ctx, "2_2")
	require.NoError(t, err)
	assert.False(t, ok)

	// 3. Take：移回新位置
	dst := filepath.Join(tmpDir, "restored.txt")
	require.NoError(t, store.Take(ctx, "1_1", dst))
	content, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	ok, err = store.Has(ctx, "1_1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 4. Take 不存在的 payload
	err = store.Take(ctx, "1_1", filepath.Join(tmpDir, "again.txt"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDiskAdapter_Directory(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	src := filepath.Join(tmpDir, "dir")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("12345"), 0o644))

	require.NoError(t, store.Put(ctx, "1_1", src, types.KindDirectory))

	content, err := os.ReadFile(filepath.Join(store.Path("1_1"), "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "12345", string(content))

	require.NoError(t, store.Take(ctx, "1_1", src))
	content, err = os.ReadFile(filepath.Join(src, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "12345", string(content))
}

func TestDiskAdapter_SymlinkIsNotDereferenced(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	target := filepath.Join(tmpDir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("payload"), 0o644))
	link := filepath.Join(tmpDir, "link")
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, store.Put(ctx, "1_1", link, types.KindSymlink))

	// 原链接删除，目标文件不受影响
	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(target)
	assert.NoError(t, err)

	got, err := os.Readlink(store.Path("1_1"))
	require.NoError(t, err)
	assert.Equal(t, target, got)

	require.NoError(t, store.Take(ctx, "1_1", link))
	got, err = os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestDiskAdapter_DanglingSymlinkCountsAsPresent(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	link := filepath.Join(tmpDir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "nowhere"), link))
	require.NoError(t, store.Put(ctx, "1_1", link, types.KindSymlink))

	ok, err := store.Has(ctx, "1_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDiskAdapter_PutRefusesExistingID(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	a := filepath.Join(tmpDir, "a")
	b := filepath.Join(tmpDir, "b")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	require.NoError(t, store.Put(ctx, "1_1", a, types.KindFile))
	err := store.Put(ctx, "1_1", b, types.KindFile)
	assert.ErrorIs(t, err, storage.ErrExists)

	_, err = os.Stat(b)
	assert.NoError(t, err, "rejected source must stay in place")
}

func TestDiskAdapter_DeleteAndClear(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	for _, id := range []types.ID{"1_1", "2_1", "3_1"} {
		p := filepath.Join(tmpDir, id.String())
		require.NoError(t, os.WriteFile(p, []byte(id), 0o644))
		require.NoError(t, store.Put(ctx, id, p, types.KindFile))
	}

	// 只读目录也要能删掉
	ro := filepath.Join(tmpDir, "ro")
	require.NoError(t, os.MkdirAll(filepath.Join(ro, "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ro, "inner", "f"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(filepath.Join(ro, "inner"), 0o555))
	require.NoError(t, store.Put(ctx, "4_1", ro, types.KindDirectory))

	require.NoError(t, store.Delete(ctx, "1_1"))
	assert.ErrorIs(t, store.Delete(ctx, "1_1"), storage.ErrNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.ID{"2_1", "3_1", "4_1"}, ids)

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDiskAdapter_RejectsUnsafeIDs(t *testing.T) {
	store, tmpDir := setupAdapter(t)
	ctx := context.Background()

	src := filepath.Join(tmpDir, "a")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))

	assert.Error(t, store.Put(ctx, "../escape", src, types.KindFile))
	assert.Error(t, store.Delete(ctx, ".."))

	ok, err := store.Has(ctx, "../files")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCopyPathRecursive(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "b", "f.txt"), []byte("deep"), 0o600))
	require.NoError(t, os.Symlink("a/b/f.txt", filepath.Join(src, "ln")))

	dst := filepath.Join(tmpDir, "dst")
	require.NoError(t, copyPathRecursive(src, dst))

	content, err := os.ReadFile(filepath.Join(dst, "a", "b", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(content))

	target, err := os.Readlink(filepath.Join(dst, "ln"))
	require.NoError(t, err)
	assert.Equal(t, "a/b/f.txt", target)
}
