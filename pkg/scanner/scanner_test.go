package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/internal/testutil"
)

func collect(t *testing.T, w *FileWalker, root string) []string {
	t.Helper()
	var got []string
	err := w.Walk(root, func(dir, name string, info os.FileInfo) error {
		rel, err := filepath.Rel(root, filepath.Join(dir, name))
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestFileWalker_Walk(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/src"
	testutil.WriteFiles(t, fs, root,
		"file1.txt",
		"file2.txt",
		".hidden_file",
		"subdir/file3.txt",
		".hidden_dir/.hidden_file2",
	)

	got := collect(t, NewFileWalker(fs), root)

	assert.ElementsMatch(t, []string{
		"file1.txt",
		"file2.txt",
		".hidden_file",
		"subdir/file3.txt",
		".hidden_dir/.hidden_file2",
	}, got)
}

func TestFileWalker_Walk_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, "/src", "b.txt", "a.txt", "c/d.txt", "c/a.txt")

	w := NewFileWalker(fs)
	first := collect(t, w, "/src")
	second := collect(t, w, "/src")

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.txt", "b.txt", "c/a.txt", "c/d.txt"}, first)
}

func TestFileWalker_Walk_YieldsDirAndName(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, "/src", "sub/c.xlsx")

	var dirs, names []string
	err := NewFileWalker(fs).Walk("/src", func(dir, name string, info os.FileInfo) error {
		dirs = append(dirs, dir)
		names = append(names, name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("/src", "sub")}, dirs)
	assert.Equal(t, []string{"c.xlsx"}, names)
}

func TestFileWalker_SkipPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, "/src", "a.txt", "dest/moved.txt", "dest/deeper/x.txt", "other/b.txt")

	w := NewFileWalker(fs)
	w.SkipPath("/src/dest")

	assert.ElementsMatch(t, []string{"a.txt", "other/b.txt"}, collect(t, w, "/src"))
}

func TestFileWalker_Exclude(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, "/src",
		"keep.csv",
		"node_modules/pkg/x.csv",
		"a/node_modules/y.csv",
		"a/tmp.bak",
		"a/keep.csv",
	)

	w := NewFileWalker(fs)
	require.NoError(t, w.Exclude("**/node_modules", "**/*.bak"))

	assert.ElementsMatch(t, []string{"keep.csv", "a/keep.csv"}, collect(t, w, "/src"))
}

func TestFileWalker_Exclude_Invalid(t *testing.T) {
	w := NewFileWalker(afero.NewMemMapFs())
	assert.Error(t, w.Exclude("[unclosed"))
}

func TestFileWalker_DirectoryErrorSkipped(t *testing.T) {
	base := afero.NewMemMapFs()
	testutil.WriteFiles(t, base, "/src", "a.txt", "broken/b.txt", "ok/c.txt")

	fs := testutil.NewFaultFs(base)
	fs.Fail(testutil.OpOpen, "/src/broken")

	w := NewFileWalker(fs)
	var failed []string
	w.OnError = func(path string, err error) {
		failed = append(failed, path)
		assert.True(t, errors.Is(err, testutil.ErrInjected))
	}

	assert.ElementsMatch(t, []string{"a.txt", "ok/c.txt"}, collect(t, w, "/src"))
	assert.Equal(t, []string{"/src/broken"}, failed)
}

func TestFileWalker_CheckRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, "/src", "file.txt")
	w := NewFileWalker(fs)

	assert.NoError(t, w.CheckRoot("/src"))

	err := w.CheckRoot("/non/existent/directory")
	assert.True(t, errors.Is(err, internal.ErrPathNotFound))

	err = w.CheckRoot("/src/file.txt")
	assert.True(t, errors.Is(err, internal.ErrPathNotFound))
}

func TestFileWalker_Walk_MissingRoot(t *testing.T) {
	w := NewFileWalker(afero.NewMemMapFs())
	err := w.Walk("/nope", func(string, string, os.FileInfo) error { return nil })
	assert.Error(t, err)
}

func TestFileWalker_Walk_WithSymlinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping symlink test in short mode")
	}

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("test content"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "dir", "inner.txt"), []byte("x"), 0644))

	if err := os.Symlink(filePath, filepath.Join(tempDir, "link.txt")); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}
	// 指向父目录的链接会形成环，不能被跟随
	if err := os.Symlink(tempDir, filepath.Join(tempDir, "dir", "loop")); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}

	got := collect(t, NewFileWalker(afero.NewOsFs()), tempDir)
	assert.ElementsMatch(t, []string{"file.txt", "link.txt", "dir/inner.txt"}, got)
}
