package format

import (
	"io"
	"strings"

	"github.com/dhamidi/classxref/xref"
)

// Stream selects one token stream of a result.
type Stream int

const (
	Definitions Stream = iota
	References
	Literals
)

// TokensEncoder writes one token stream, one token per line, in order and
// with duplicates kept.
type TokensEncoder struct {
	w      io.Writer
	stream Stream
	res    *xref.Result
}

func NewTokensEncoder(w io.Writer, stream Stream) *TokensEncoder {
	return &TokensEncoder{w: w, stream: stream}
}

func (e *TokensEncoder) Encode(res *xref.Result) error {
	e.res = res
	return encode(e.w, e)
}

func (e *TokensEncoder) MarshalText() ([]byte, error) {
	var tokens []string
	switch e.stream {
	case Definitions:
		tokens = e.res.Definitions
	case References:
		tokens = e.res.References
	case Literals:
		return []byte(e.res.LiteralText()), nil
	}
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}
