package format

import (
	"io"

	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/xref"
)

// TextEncoder writes the rendered text, with its anchors or, when plain,
// without them.
type TextEncoder struct {
	w     io.Writer
	plain bool
	res   *xref.Result
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func NewPlainTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w, plain: true}
}

func (e *TextEncoder) Encode(res *xref.Result) error {
	e.res = res
	return encode(e.w, e)
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	if e.plain {
		return []byte(index.PlainText(e.res.Text)), nil
	}
	return []byte(e.res.Text), nil
}
