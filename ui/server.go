// Package ui serves the index over HTTP. It answers the links embedded in
// rendered text: "{prefix}defs=X" lists the classes defining X and
// "{prefix}path=X" opens a class or lists the classes compiled from the
// source file X.
package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/classxref/index"
)

var log = commonlog.GetLogger("classxref.ui")

const maxResults = 200

var templates = template.Must(template.New("").Parse(`
{{define "head"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.}}</title>
<style>
body { font-family: sans-serif; margin: 1em 2em; }
pre { font-family: monospace; background: #f6f6f6; padding: 1em; }
a.d { font-weight: bold; }
</style></head><body>
{{end}}

{{define "results.html"}}{{template "head" .Title}}
<h1>{{.Title}}</h1>
{{if .Paths}}<ul>
{{range .Paths}}<li><a href="{{$.XrefBase}}{{.}}">{{.}}</a></li>
{{end}}</ul>
{{if .HasMore}}<p>Showing {{len .Paths}} of {{.Total}} matches.</p>{{end}}
{{else}}<p>No matches.</p>{{end}}
</body></html>
{{end}}

{{define "document.html"}}{{template "head" .Doc.Path}}
<h1>{{.Doc.Path}}</h1>
<pre>{{.Text}}</pre>
{{if .Doc.Literals}}<h2>Literals</h2>
<pre>{{range .Doc.Literals}}{{.}}
{{end}}</pre>{{end}}
</body></html>
{{end}}
`))

type Server struct {
	store      *index.Store
	mux        *http.ServeMux
	searchPath string
	xrefBase   string
}

// NewServer serves store. The search endpoint is the path of urlPrefix,
// so "/source/s?" is answered at /source/s; documents are shown under
// the sibling path /source/xref/. A relative prefix such as "s?" is
// served from the root.
func NewServer(store *index.Store, urlPrefix string) (*Server, error) {
	u, err := url.Parse(strings.TrimSuffix(urlPrefix, "?"))
	if err != nil {
		return nil, fmt.Errorf("url prefix %q: %w", urlPrefix, err)
	}
	searchPath := u.Path
	if !strings.HasPrefix(searchPath, "/") {
		searchPath = "/" + searchPath
	}
	if searchPath == "/" {
		searchPath = "/s"
	}
	base := searchPath[:strings.LastIndex(searchPath, "/")+1]

	s := &Server{
		store:      store,
		mux:        http.NewServeMux(),
		searchPath: searchPath,
		xrefBase:   base + "xref/",
	}
	s.mux.HandleFunc("GET "+searchPath, s.handleSearch)
	s.mux.HandleFunc("GET "+s.xrefBase+"{path...}", s.handleDocument)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("render %s: %v", name, err)
	}
}

type resultsData struct {
	Title    string
	XrefBase string
	Paths    []string
	Total    int
	HasMore  bool
}

func (s *Server) results(w http.ResponseWriter, r *http.Request, title string, paths []string) {
	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		if paths == nil {
			paths = []string{}
		}
		json.NewEncoder(w).Encode(paths)
		return
	}
	data := resultsData{Title: title, XrefBase: s.xrefBase, Total: len(paths)}
	if len(paths) > maxResults {
		paths = paths[:maxResults]
		data.HasMore = true
	}
	data.Paths = paths
	s.render(w, "results.html", data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if p := q.Get("path"); p != "" {
		if _, err := s.store.Get(p); err == nil {
			http.Redirect(w, r, s.xrefBase+p, http.StatusSeeOther)
			return
		}
		s.search(w, r, index.FieldDefs, p, "Classes compiled from "+p)
		return
	}
	for _, f := range []index.Field{index.FieldDefs, index.FieldRefs, index.FieldFull} {
		if term := q.Get(string(f)); term != "" {
			s.search(w, r, f, term, fmt.Sprintf("%s: %s", f, term))
			return
		}
	}
	http.Error(w, "expected one of path, defs, refs or full", http.StatusBadRequest)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, field index.Field, term, title string) {
	paths, err := s.store.Search(field, term)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.results(w, r, title, paths)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.PathValue("path"))
	if errors.Is(err, index.ErrNotFound) {
		http.Error(w, "class not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
		return
	}

	// Rendered text is already escaped markup built by the analyzer.
	s.render(w, "document.html", struct {
		Doc  *index.Document
		Text template.HTML
	}{doc, template.HTML(doc.Text)})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.Paths()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.results(w, r, "Indexed classes", paths)
}
