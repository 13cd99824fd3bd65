package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classxref/classfile/classtest"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func writeClass(t *testing.T, path string, b *classtest.Builder) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "C.class")
	writeClass(t, path, classtest.New("p/C", "java/lang/Object").SourceFile("C.java"))

	assert.Equal(t, "C.java\np\nC\n", run(t, "analyze", "-f", "defs", path))
	assert.Contains(t, run(t, "analyze", "--url-prefix", "/x?", path), `<a href="/x?path=C.java">C.java</a>`)
}

func TestIndexAndSearchCommands(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	db := filepath.Join(dir, "index.db")
	writeClass(t, filepath.Join(classes, "p", "C.class"), classtest.New("p/C", "java/lang/Object"))
	writeClass(t, filepath.Join(classes, "p", "D.class"), classtest.New("p/D", "p/C"))

	out := run(t, "index", "--db", db, "-j", "2", classes)
	assert.Contains(t, out, "Indexed: 2")
	assert.Contains(t, out, "Failed: 0")

	assert.Equal(t, "p/D.class\n", run(t, "search", "--db", db, "-F", "refs", "p.C"))
	assert.Equal(t, "p/C.class\np/D.class\n", run(t, "search", "--db", db, "p"))
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a", "C.class")
	b := filepath.Join(dir, "b", "C.class")
	writeClass(t, a, classtest.New("p/C", "java/lang/Object"))
	withField := classtest.New("p/C", "java/lang/Object")
	withField.Field(0, "x", "I")
	writeClass(t, b, withField)

	out := run(t, "diff", a, b)
	assert.Contains(t, out, "+\tint x\n")
	assert.Empty(t, run(t, "diff", a, a))
}
