package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMatchCommand(t *testing.T) {
	err := execute(t, "match", "f(a,b)", "f(b,a)",
		"-r", "f=f", "-r", "a=a", "-r", "b=b")
	assert.NoError(t, err)
}

func TestMatchCommandAsymmetric(t *testing.T) {
	err := execute(t, "match", "f(a,b)", "f(a,b,c)", "--asymmetric",
		"-r", "f=f", "-r", "a=a", "-r", "b=b")
	assert.NoError(t, err)
}

func TestMatchCommandBadExpression(t *testing.T) {
	err := execute(t, "match", "f(", "f(a)")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	err := execute(t, "batch", "--fixtures", "testdata/*.fn")
	assert.NoError(t, err)
}

func TestBatchCommandNoMatches(t *testing.T) {
	err := execute(t, "batch", "--fixtures", filepath.Join(t.TempDir(), "*.fn"))
	assert.Error(t, err)
}

func TestExtractCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.js")
	require.NoError(t, os.WriteFile(path, []byte("f(a, b(c));"), 0644))

	err := execute(t, "extract", path)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	assert.NoError(t, execute(t, "version"))
}
