package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "out", "nested")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	name := filepath.Join(dir, "a.csv")
	require.NoError(t, fsys.WriteFile(name, []byte("frame\n1\n"), 0o644))

	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "frame\n1\n", string(data))
	assert.True(t, Exists(fsys, name))
	assert.False(t, Exists(fsys, filepath.Join(dir, "missing.csv")))
}

func TestMemoryFileSystem_WriteRequiresDirectory(t *testing.T) {
	mfs := NewMemoryFileSystem()

	err := mfs.WriteFile("/runs/one/out.json", []byte("{}"), 0o644)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, mfs.MkdirAll("/runs/one", 0o755))
	require.NoError(t, mfs.WriteFile("/runs/one/out.json", []byte("{}"), 0o644))

	info, err := mfs.Stat("/runs")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFileSystem_CopiesData(t *testing.T) {
	mfs := NewMemoryFileSystem()
	buf := []byte("abc")
	require.NoError(t, mfs.WriteFile("a.txt", buf, 0o644))
	buf[0] = 'z'

	got, err := mfs.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := mfs.ReadFile("a.txt")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/out", 0o755))
	require.NoError(t, mfs.MkdirAll("/other", 0o755))
	for _, n := range []string{"/out/b.csv", "/out/a.csv", "/other/c.csv"} {
		require.NoError(t, mfs.WriteFile(n, nil, 0o644))
	}

	assert.Equal(t, []string{"/out/a.csv", "/out/b.csv"}, mfs.Files("/out"))
	assert.Empty(t, mfs.Files("/missing"))

	_, err := mfs.ReadFile("/out/zzz.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = mfs.Stat("/out/zzz.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
