package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/classxref/xref"
)

type JSONEncoder struct {
	w   io.Writer
	res *xref.Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(res *xref.Result) error {
	e.res = res
	return encode(e.w, e)
}

// MarshalText renders the result as indented JSON. Empty token streams are
// written as [] rather than null.
func (e *JSONEncoder) MarshalText() ([]byte, error) {
	out := *e.res
	for _, s := range []*[]string{&out.Definitions, &out.References, &out.Literals} {
		if *s == nil {
			*s = []string{}
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
