// Package xref renders JVM class files for a code-search index. An analysis
// yields a hyperlinked structural rendition, the definition and reference
// tokens it declares and uses, and the constant-pool literals that the
// rendition did not surface.
package xref

import (
	"io"
	"strings"

	"github.com/dhamidi/classxref/classfile"
)

// Result is the output of analyzing one class file.
type Result struct {
	Text        string   `json:"text"`
	Definitions []string `json:"definitions"`
	References  []string `json:"references"`
	Literals    []string `json:"literals"`
}

// LiteralText joins the literals one per line, as they are stored for
// full-text search.
func (r *Result) LiteralText() string {
	var sb strings.Builder
	for _, l := range r.Literals {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Analyzer runs analyses. It holds only immutable configuration and is safe
// for concurrent use; every call builds its own decoding and bookkeeping
// state.
type Analyzer struct {
	links Linker
}

func NewAnalyzer(urlPrefix string) *Analyzer {
	return &Analyzer{links: Linker{Prefix: urlPrefix}}
}

// Analyze renders cf and then collects the residual literals. On error no
// partial result is returned.
func (a *Analyzer) Analyze(cf *classfile.ClassFile) (*Result, error) {
	res, visited, err := Renderer{Links: a.links}.Render(cf)
	if err != nil {
		return nil, err
	}
	literals, err := Collect(NewResolver(cf.ConstantPool, visited))
	if err != nil {
		return nil, err
	}
	res.Literals = literals
	return res, nil
}

// AnalyzeReader decodes a class file from rd and analyzes it.
func (a *Analyzer) AnalyzeReader(rd io.Reader) (*Result, error) {
	cf, err := classfile.Parse(rd)
	if err != nil {
		return nil, err
	}
	return a.Analyze(cf)
}

// AnalyzeFile decodes and analyzes the class file at path.
func (a *Analyzer) AnalyzeFile(path string) (*Result, error) {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(cf)
}
