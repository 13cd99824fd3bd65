// Package format writes analysis results for people and tools.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/classxref/xref"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(res *xref.Result) error
}

// Names lists the formats accepted by NewEncoder.
var Names = []string{"html", "text", "json", "defs", "refs", "literals"}

// NewEncoder returns the encoder registered under name.
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "html":
		return NewTextEncoder(w), nil
	case "text":
		return NewPlainTextEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "defs":
		return NewTokensEncoder(w, Definitions), nil
	case "refs":
		return NewTokensEncoder(w, References), nil
	case "literals":
		return NewTokensEncoder(w, Literals), nil
	}
	return nil, fmt.Errorf("unknown format: %s (expected one of %v)", name, Names)
}

func encode(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
