package xref

import (
	"errors"

	"github.com/dhamidi/classxref/classfile"
)

var (
	// ErrMalformedConstant reports a constant-pool index that is out of
	// range, empty, or names an entry of the wrong kind.
	ErrMalformedConstant = errors.New("malformed constant")

	// ErrMalformedClassModel reports a class model that cannot supply what
	// the rendition needs, such as an undecodable field descriptor.
	ErrMalformedClassModel = errors.New("malformed class model")
)

// Kind classifies an analysis failure for per-kind reporting.
type Kind string

const (
	KindNone                Kind = ""
	KindTruncatedInput      Kind = "truncated-input"
	KindMalformedContainer  Kind = "malformed-container"
	KindMalformedConstant   Kind = "malformed-constant"
	KindMalformedClassModel Kind = "malformed-class-model"
	KindIO                  Kind = "io"
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, classfile.ErrTruncatedInput):
		return KindTruncatedInput
	case errors.Is(err, classfile.ErrMalformedContainer):
		return KindMalformedContainer
	case errors.Is(err, ErrMalformedConstant):
		return KindMalformedConstant
	case errors.Is(err, ErrMalformedClassModel):
		return KindMalformedClassModel
	default:
		return KindIO
	}
}
