package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyu-x/file-mover/internal"
	"github.com/moyu-x/file-mover/internal/testutil"
)

type cliEnv struct {
	root   string
	src    string
	dst    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	env := &cliEnv{
		root:   root,
		src:    filepath.Join(root, "src"),
		dst:    filepath.Join(root, "dst"),
		config: filepath.Join(root, "config.yaml"),
	}
	content := fmt.Sprintf("database:\n  path: %s\nlogging:\n  level: error\n", filepath.Join(root, "history.db"))
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0644))
	testutil.WriteFiles(t, afero.NewOsFs(), env.src, "a.xlsx", "b.txt", "sub/c.xlsx")
	return env
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	return e.runWith(t, afero.NewOsFs(), stdin, args...)
}

func (e *cliEnv) runWith(t *testing.T, fs afero.Fs, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd := newRootCommand(fs)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	code := run(rootCmd, append([]string{"--config", e.config}, args...))
	return code, out.String(), errOut.String()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestMoveCommand_Yes(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "", "move", "-s", env.src, "-d", env.dst, "-c", "Spreadsheets", "--yes")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "moved: "+filepath.Join(env.src, "a.xlsx"))
	assert.Contains(t, out, "undo record saved")
	assert.True(t, fileExists(filepath.Join(env.dst, "a.xlsx")))
	assert.True(t, fileExists(filepath.Join(env.dst, "c.xlsx")))
	assert.True(t, fileExists(filepath.Join(env.src, "b.txt")))
	assert.True(t, fileExists(filepath.Join(env.dst, internal.UndoRecordFileName)))

	code, out, _ = env.run(t, "", "history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "move")

	code, out, _ = env.run(t, "", "undo", "--dir", env.dst)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "undo record removed")
	assert.True(t, fileExists(filepath.Join(env.src, "a.xlsx")))
	assert.True(t, fileExists(filepath.Join(env.src, "sub", "c.xlsx")))
	assert.False(t, fileExists(filepath.Join(env.dst, internal.UndoRecordFileName)))
}

func TestMoveCommand_ConfirmDeclined(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "n\n", "move", "-s", env.src, "-d", env.dst, "-c", "Spreadsheets")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "a.xlsx")
	assert.Contains(t, out, "[y/N]")
	assert.Contains(t, out, "已取消")
	assert.True(t, fileExists(filepath.Join(env.src, "a.xlsx")))
	assert.False(t, fileExists(filepath.Join(env.dst, "a.xlsx")))
}

func TestCopyCommand_ConfirmAccepted(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "y\n", "copy", "-s", env.src, "-d", env.dst, "-e", ".txt, xlsx", "--verify")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "copied: ")
	for _, name := range []string{"a.xlsx", "b.txt", "c.xlsx"} {
		assert.True(t, fileExists(filepath.Join(env.dst, name)), name)
	}
	assert.True(t, fileExists(filepath.Join(env.src, "a.xlsx")))
	assert.False(t, fileExists(filepath.Join(env.dst, internal.UndoRecordFileName)))
}

func TestDeleteCommand_PreviewFlag(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "", "delete", "-s", env.src, "-c", "Spreadsheets", "--preview")
	require.Equal(t, 0, code)

	assert.Contains(t, out, internal.DeleteMarker)
	assert.NotContains(t, out, "[y/N]")
	assert.True(t, fileExists(filepath.Join(env.src, "a.xlsx")))
}

func TestPreviewCommand(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "", "preview", "-m", "copy", "-s", env.src, "-d", env.dst, "-c", "Spreadsheets", "--exclude", "sub")
	require.Equal(t, 0, code)

	assert.Contains(t, out, filepath.Join(env.dst, "a.xlsx"))
	assert.NotContains(t, out, "c.xlsx")
	assert.False(t, fileExists(env.dst))

	code, _, errOut := env.run(t, "", "preview", "-m", "shred", "-s", env.src, "-c", "PDF")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestPreviewCommand_ShowsTypeAndTotals(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "", "move", "-s", env.src, "-d", env.dst, "-c", "Spreadsheets", "--preview")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "spreadsheetml")
	assert.Contains(t, out, "2 个文件，共扫描 3 个")
}

func TestMoveCommand_ConfirmPreviewReportsUnreadableDirectory(t *testing.T) {
	env := newCLIEnv(t)
	fs := testutil.NewFaultFs(afero.NewOsFs())
	fs.Fail(testutil.OpOpen, filepath.Join(env.src, "sub"))

	code, out, _ := env.runWith(t, fs, "n\n", "move", "-s", env.src, "-d", env.dst, "-c", "Spreadsheets")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "cannot read directory")
	assert.Contains(t, out, filepath.Join(env.src, "sub"))
	assert.Contains(t, out, "已取消")
}

func TestOperationCommand_NothingSelected(t *testing.T) {
	env := newCLIEnv(t)

	code, _, errOut := env.run(t, "", "move", "-s", env.src, "-d", env.dst, "-e", " , .", "--yes")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, internal.ErrNoExtensions.Error())
	assert.True(t, fileExists(filepath.Join(env.src, "a.xlsx")))
}

func TestOperationCommand_FatalErrors(t *testing.T) {
	env := newCLIEnv(t)

	code, _, errOut := env.run(t, "", "delete", "-s", filepath.Join(env.root, "missing"), "-c", "PDF", "--yes")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	code, _, _ = env.run(t, "", "move", "-s", env.src, "-c", "PDF", "--yes")
	assert.Equal(t, 1, code)

	code, _, _ = env.run(t, "", "move", "-s", env.src, "-d", env.dst, "--yes")
	assert.Equal(t, 1, code)
}

func TestUndoCommand_NothingToUndo(t *testing.T) {
	env := newCLIEnv(t)

	code, _, errOut := env.run(t, "", "undo")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)
}

func TestCategoriesCommand(t *testing.T) {
	env := newCLIEnv(t)

	code, out, _ := env.run(t, "", "categories")
	require.Equal(t, 0, code)
	for _, name := range []string{"Spreadsheets", "PDF", "Executables", ".xlsx"} {
		assert.Contains(t, out, name)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	partial := &cobra.Command{
		Use:           "partial",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return &exitError{code: 2}
		},
	}
	assert.Equal(t, 2, run(partial, nil))

	var errOut bytes.Buffer
	fatal := &cobra.Command{
		Use:           "fatal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return internal.ErrPathNotFound
		},
	}
	fatal.SetErr(&errOut)
	assert.Equal(t, 1, run(fatal, nil))
	assert.Contains(t, errOut.String(), "path not found")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, internal.ModeMove, 2))
	assert.True(t, confirm(strings.NewReader(" YES \n"), &out, internal.ModeMove, 2))
	assert.True(t, confirm(strings.NewReader("y"), &out, internal.ModeMove, 2))
	assert.False(t, confirm(strings.NewReader("\n"), &out, internal.ModeMove, 2))
	assert.False(t, confirm(strings.NewReader(""), &out, internal.ModeMove, 2))
	assert.False(t, confirm(strings.NewReader("nope\n"), &out, internal.ModeDelete, 2))
}
