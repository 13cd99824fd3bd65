package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/classxref/classfile/classtest"
	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/xref"
)

const prefix = "/source/s?"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	analyzer := xref.NewAnalyzer(prefix)
	for path, b := range map[string]*classtest.Builder{
		"p/C.class": classtest.New("p/C", "java/lang/Object").SourceFile("C.java"),
		"p/D.class": classtest.New("p/D", "p/C").SourceFile("D.java"),
	} {
		res, err := analyzer.Analyze(b.Parse())
		require.NoError(t, err)
		require.NoError(t, store.Put(index.NewDocument(path, "", res)))
	}

	s, err := NewServer(store, prefix)
	require.NoError(t, err)
	return s
}

func get(s *Server, target string, asJSON bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodePaths(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paths []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paths))
	return paths
}

func TestSearchLinks(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, []string{"p/C.class", "p/D.class"}, decodePaths(t, get(s, "/source/s?defs=p", true)))
	assert.Equal(t, []string{"p/D.class"}, decodePaths(t, get(s, "/source/s?refs=p.C", true)))
	assert.Equal(t, []string{"p/C.class"}, decodePaths(t, get(s, "/source/s?path=C.java", true)))
	assert.Equal(t, []string{}, decodePaths(t, get(s, "/source/s?defs=nothing", true)))

	rec := get(s, "/source/s", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHTML(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/source/s?defs=D", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/source/xref/p/D.class">p/D.class</a>`)
}

func TestDocument(t *testing.T) {
	s := newTestServer(t)

	rec := get(s, "/source/xref/p/D.class", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/source/s?defs=p.C">p.C</a>`)

	rec = get(s, "/source/s?path=p/D.class", false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/source/xref/p/D.class", rec.Header().Get("Location"))

	rec = get(s, "/source/xref/p/Missing.class", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(s, "/source/xref/p/C.class", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc index.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "p/C.class", doc.Path)
}

func TestRelativePrefix(t *testing.T) {
	store, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	res, err := xref.NewAnalyzer("s?").Analyze(classtest.New("p/C", "java/lang/Object").Parse())
	require.NoError(t, err)
	require.NoError(t, store.Put(index.NewDocument("p/C.class", "", res)))

	for _, prefix := range []string{"s?", "?", ""} {
		t.Run(prefix, func(t *testing.T) {
			var s *Server
			require.NotPanics(t, func() { s, err = NewServer(store, prefix) })
			require.NoError(t, err)
			assert.Equal(t, []string{"p/C.class"}, decodePaths(t, get(s, "/s?defs=C", true)))
		})
	}

	s, err := NewServer(store, "s?")
	require.NoError(t, err)
	rec := get(s, "/xref/p/C.class", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="s?defs=C">C</a>`)
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, []string{"p/C.class", "p/D.class"}, decodePaths(t, get(s, "/", true)))
}
