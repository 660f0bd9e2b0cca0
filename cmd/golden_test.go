package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rubiojr/pseudo/compiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xyproto/env/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCollectPrograms(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pseudo", "OUTPUT 1\n")
	writeFile(t, dir, "a.out", "1\n")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pseudo"), 0o755))
	single := writeFile(t, t.TempDir(), "b.pseudo", "OUTPUT 2\n")

	cases, err := collectPrograms([]string{dir, single})
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, filepath.Join(dir, "a.pseudo"), cases[0].source)
	assert.Equal(t, filepath.Join(dir, "a.out"), cases[0].path(".out"))
	assert.Equal(t, single, cases[1].source)

	_, err = collectPrograms([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestDiffLines(t *testing.T) {
	assert.Empty(t, diffLines([]string{"a", "b"}, []string{"a", "b"}))
	assert.Equal(t, `line 2: want "b", got "c"`, diffLines([]string{"a", "b"}, []string{"a", "c"}))
	assert.Equal(t, `line 2: missing "b"`, diffLines([]string{"a", "b"}, []string{"a"}))
	assert.Equal(t, `line 1: unexpected "x"`, diffLines(nil, []string{"x"}))
}

func TestReadLines(t *testing.T) {
	dir := t.TempDir()
	lines, ok, err := readLines(writeFile(t, dir, "x.in", "1\r\n2\n"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, lines)

	lines, ok, err = readLines(filepath.Join(dir, "none.in"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, lines)
}

// Compile errors are reported before any build, so these cases need no
// Go toolchain.
func TestRunGoldenCasesWithoutToolchain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.pseudo", "x ← 1\n")
	writeFile(t, dir, "bad.err", "x is not declared\n")
	writeFile(t, dir, "wrong.pseudo", "x ← 1\n")
	writeFile(t, dir, "wrong.err", "something else\n")
	writeFile(t, dir, "lonely.pseudo", "OUTPUT 1\n")

	cases, err := collectPrograms([]string{dir})
	require.NoError(t, err)
	require.Len(t, cases, 3)

	var out bytes.Buffer
	passed, failed, skipped := runGoldenCases(&compiler.Compiler{}, cases, 2, &out, false)
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)

	report := out.String()
	assert.Contains(t, report, "PASS "+filepath.Join(dir, "bad.pseudo"))
	assert.Contains(t, report, "FAIL "+filepath.Join(dir, "wrong.pseudo"))
	assert.Contains(t, report, `expected error containing "something else"`)
	assert.Contains(t, report, "SKIP "+filepath.Join(dir, "lonely.pseudo"))
	assert.Contains(t, report, "3 programs, 1 passed, 1 failed, 1 skipped")
	assert.NotContains(t, report, "\033[")
}

// The bundled examples double as end-to-end fixtures.
func TestExamplePrograms(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	if _, err := exec.LookPath(env.Str("PSEUDO_GO", "go")); err != nil {
		t.Skip("go toolchain not found")
	}

	cases, err := collectPrograms([]string{filepath.Join("..", "examples")})
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	var out bytes.Buffer
	passed, failed, skipped := runGoldenCases(&compiler.Compiler{}, cases, 4, &out, false)
	assert.Zero(t, failed, out.String())
	assert.Zero(t, skipped, out.String())
	assert.Equal(t, len(cases), passed)
}
