package filex

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("preupload")
	require.NoError(t, err)

	want := filepath.Join(tmp, "preupload")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureDir("preupload")
	require.NoError(t, err)

	second, err := EnsureDir("preupload")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_KeepsAbsolutePath(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "data")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)
	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("preupload", []byte("x"), 0o660))

	_, err := EnsureDir("preupload")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestOpen_StatsAndReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "course.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "course.mp4", f.Name)
	require.Equal(t, int64(10), f.Size)
	require.Equal(t, "video/mp4", f.Mimetype)

	r, err := f.Reader()
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(b))
}

func TestOpen_SniffsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.unknownext")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", f.Mimetype)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.mp4"))
	require.Error(t, err)

	_, err = Open(t.TempDir())
	require.Error(t, err)
}

func TestFromBytes(t *testing.T) {
	f := FromBytes("notes.pdf", []byte("abc"), "")
	require.Equal(t, int64(3), f.Size)
	require.Equal(t, "application/pdf", f.Mimetype)

	// readable more than once, for retries
	for i := 0; i < 2; i++ {
		r, err := f.Reader()
		require.NoError(t, err)
		b, _ := io.ReadAll(r)
		require.Equal(t, "abc", string(b))
	}

	_, err := (&LocalFile{Name: "x"}).Reader()
	require.Error(t, err)
}
