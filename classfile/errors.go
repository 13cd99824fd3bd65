package classfile

import "errors"

var (
	// ErrTruncatedInput reports a class file that ends before the structure
	// it declares is complete.
	ErrTruncatedInput = errors.New("truncated class file")

	// ErrMalformedContainer reports bytes that are not a well-formed class
	// file: bad magic, unknown constant tags, inconsistent lengths.
	ErrMalformedContainer = errors.New("malformed class file")
)

var (
	errShort  = errors.New("too short")
	errLength = errors.New("length does not match contents")
)
