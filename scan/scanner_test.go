package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classxref/classfile/classtest"
	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/xref"
)

type memSink struct {
	mu   sync.Mutex
	docs map[string]*index.Document
}

func (m *memSink) Put(doc *index.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string]*index.Document)
	}
	m.docs[doc.Path] = doc
	return nil
}

func (m *memSink) names() []string {
	var out []string
	for k := range m.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func classBytes(name string) []byte {
	return classtest.New(name, "java/lang/Object").SourceFile("X.java").Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newScanner(t *testing.T, sink Sink, workers int) *Scanner {
	t.Helper()
	s, err := New(xref.NewAnalyzer("/s?"), sink, workers, 16)
	require.NoError(t, err)
	return s
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()
	c := classBytes("a/C")
	writeFile(t, filepath.Join(dir, "a", "C.class"), c)
	writeFile(t, filepath.Join(dir, "b", "D.class"), classBytes("b/D"))
	writeFile(t, filepath.Join(dir, "bad", "Broken.class"), c[:len(c)-3])
	writeFile(t, filepath.Join(dir, "c", "Copy.class"), c)
	writeFile(t, filepath.Join(dir, "c", "README.txt"), []byte("not a class"))
	writeFile(t, filepath.Join(dir, ".git", "Hidden.class"), c)

	sink := &memSink{}
	stats, err := newScanner(t, sink, 1).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Units)
	assert.Equal(t, 3, stats.Indexed)
	assert.Equal(t, 1, stats.Cached)
	assert.Equal(t, map[xref.Kind]int{xref.KindTruncatedInput: 1}, stats.Failures)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "bad/Broken.class", stats.Errors[0].Name)

	assert.Equal(t, []string{"a/C.class", "b/D.class", "c/Copy.class"}, sink.names())
	assert.Equal(t, sink.docs["a/C.class"].Digest, sink.docs["c/Copy.class"].Digest)
	assert.Equal(t, sink.docs["a/C.class"].Text, sink.docs["c/Copy.class"].Text)
	assert.Contains(t, sink.docs["b/D.class"].Definitions, "D")
}

func TestRunArchive(t *testing.T) {
	inner := zipBytes(t, map[string][]byte{"q/D.class": classBytes("q/D")})
	jar := filepath.Join(t.TempDir(), "lib.jar")
	writeFile(t, jar, zipBytes(t, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"p/C.class":            classBytes("p/C"),
		"lib/inner.jar":        inner,
	}))

	sink := &memSink{}
	stats, err := newScanner(t, sink, 4).Run(context.Background(), jar)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Zero(t, stats.Failed())
	assert.Equal(t, []string{jar + "!/lib/inner.jar!/q/D.class", jar + "!/p/C.class"}, sink.names())
}

func TestRunArchiveEntryTooLarge(t *testing.T) {
	small := classBytes("p/C")
	big := classtest.New("p/Big", "java/lang/Object")
	big.Utf8(strings.Repeat("x", 4096))
	jar := filepath.Join(t.TempDir(), "lib.jar")
	writeFile(t, jar, zipBytes(t, map[string][]byte{
		"p/C.class":   small,
		"p/Big.class": big.Bytes(),
	}))

	sink := &memSink{}
	s := newScanner(t, sink, 1)
	s.maxEntry = int64(len(small))
	stats, err := s.Run(context.Background(), jar)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, map[xref.Kind]int{xref.KindIO: 1}, stats.Failures)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, jar+"!/p/Big.class", stats.Errors[0].Name)
	assert.ErrorIs(t, stats.Errors[0].Err, ErrEntryTooLarge)
	assert.Equal(t, []string{jar + "!/p/C.class"}, sink.names())
}

func TestRunSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "C.class")
	writeFile(t, path, classBytes("p/C"))

	sink := &memSink{}
	stats, err := newScanner(t, sink, 1).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, []string{filepath.ToSlash(path)}, sink.names())

	_, err = newScanner(t, sink, 1).Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, txt, []byte("x"))
	_, err = newScanner(t, sink, 1).Run(context.Background(), txt)
	assert.Error(t, err)
}

func TestRunSinkFailureStops(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "C.class"), classBytes("p/C"))

	boom := errors.New("disk full")
	sink := SinkFunc(func(*index.Document) error { return boom })
	_, err := newScanner(t, sink, 2).Run(context.Background(), dir)
	assert.ErrorIs(t, err, boom)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "C.class"), classBytes("p/C"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &memSink{}
	_, err := newScanner(t, sink, 2).Run(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.docs)
}

func TestProcess(t *testing.T) {
	sink := &memSink{}
	s := newScanner(t, sink, 1)

	require.NoError(t, s.Process(Unit{Name: "p/C.class", Data: classBytes("p/C")}))
	assert.Equal(t, []string{"p/C.class"}, sink.names())

	err := s.Process(Unit{Name: "p/Bad.class", Data: []byte{0xCA, 0xFE}})
	var uerr UnitError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, xref.KindTruncatedInput, uerr.Kind)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Units)
	assert.Equal(t, 1, stats.Failed())
}
