package index

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dhamidi/classxref/xref"
)

// maxTermLen caps term length. Longer literal lines are still searchable
// through their shorter words.
const maxTermLen = 1024

// Field names a searchable term list.
type Field string

const (
	FieldDefs Field = "defs"
	FieldRefs Field = "refs"
	FieldFull Field = "full"
)

func (f Field) Valid() bool {
	switch f {
	case FieldDefs, FieldRefs, FieldFull:
		return true
	}
	return false
}

// Document is one analyzed class as stored in the index.
type Document struct {
	Path        string   `json:"path"`
	Digest      string   `json:"digest"`
	Text        string   `json:"text"`
	Definitions []string `json:"definitions"`
	References  []string `json:"references"`
	Literals    []string `json:"literals"`
}

func NewDocument(path, digest string, res *xref.Result) *Document {
	return &Document{
		Path:        path,
		Digest:      digest,
		Text:        res.Text,
		Definitions: res.Definitions,
		References:  res.References,
		Literals:    res.Literals,
	}
}

// Terms returns the sorted, deduplicated terms d contributes to field.
func (d *Document) Terms(field Field) []string {
	switch field {
	case FieldDefs:
		return unique(d.Definitions)
	case FieldRefs:
		return unique(d.References)
	case FieldFull:
		terms := words(PlainText(d.Text))
		for _, l := range d.Literals {
			terms = append(terms, l)
			terms = append(terms, words(l)...)
		}
		return unique(terms)
	}
	return nil
}

// PlainText strips the anchor markup from rendered text and unescapes its
// entities. Tokenizing stops at the first error, which for well-formed
// rendered text is io.EOF.
func PlainText(rendered string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(rendered))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// words splits s into identifier-like runs. Qualified names such as
// java.util.Map$Entry and special method names such as <init> stay whole.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '.' || r == '<' || r == '>')
	})
}

func unique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	out = append(out, in...)
	sort.Strings(out)
	j := 0
	for i := range out {
		if out[i] == "" || len(out[i]) > maxTermLen || (j > 0 && out[i] == out[j-1]) {
			continue
		}
		out[j] = out[i]
		j++
	}
	if j == 0 {
		return nil
	}
	return out[:j]
}
