package etf

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTag             = errors.New("etf: unknown tag")
	ErrTruncated              = errors.New("etf: truncated input")
	ErrMalformedFloat         = errors.New("etf: malformed float")
	ErrReferenceArityExceeded = errors.New("etf: reference has more than 3 ids")
	ErrUnsupported            = errors.New("etf: unsupported term")
	ErrTooLarge               = errors.New("etf: term too large")
	ErrDepthExceeded          = errors.New("etf: nesting too deep")
	ErrTrailingData           = errors.New("etf: trailing data after term")
	ErrCorruptCompressed      = errors.New("etf: corrupt compressed term")
)

// DecodeError reports where decoding stopped. Offset counts the bytes
// consumed from the source before the failure, and Tag is the tag of
// the innermost term being read.
type DecodeError struct {
	Offset int64
	Tag    byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tag %d at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError names the Go type of the term that could not be written.
type EncodeError struct {
	Term string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Term, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func encodeError(t Term, err error) error {
	return &EncodeError{Term: fmt.Sprintf("%T", t), Err: err}
}
