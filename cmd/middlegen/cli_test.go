package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

const source = `package demo

// Add sums two numbers.
//
//middle:fn
func Add(a, b int) int { return a + b }
`

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(newRootCmd(), "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"middlegen", "//middle:fn", "--out", "--dry-run"} {
		assert.Contains(t, output, phrase)
	}
}

func TestGenerateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"), []byte(source), 0o600))

	output, err := executeCommand(newRootCmd(), dir)
	require.NoError(t, err)
	assert.Contains(t, output, "wrote middle_exports.go")
	assert.Contains(t, output, "wrote middle_exports_wasip1.go")

	data, err := os.ReadFile(filepath.Join(dir, "middle_exports.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `entry.Params("a", "b")`)
}

func TestGenerateDryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"), []byte(source), 0o600))

	output, err := executeCommand(newRootCmd(), "--dry-run", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "// --- middle_exports_wasip1.go ---")
	assert.Contains(t, output, "//go:wasmexport user_fn__add")

	_, err = os.Stat(filepath.Join(dir, "middle_exports.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateOutDir(t *testing.T) {
	dir, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"), []byte(source), 0o600))

	_, err := executeCommand(newRootCmd(), "-o", out, dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "middle_exports.go"))
}

func TestGenerateRejectsInvalidFunction(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.go"),
		[]byte("package demo\n\n//middle:fn\nfunc Note(msg string) {}\n"), 0o600))

	output, err := executeCommand(newRootCmd(), dir)
	require.Error(t, err)
	assert.Contains(t, output, "cannot export Note")
}
