package mdd

import "fmt"

// FormatError is malformed framing, envelope or payload. Always fatal.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mdd: %s: %v", e.Msg, e.Err)
	}
	return "mdd: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(err error, format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// UnsupportedCompressionError names a compression algorithm this codec does
// not know.
type UnsupportedCompressionError struct {
	Algorithm string
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("mdd: unsupported compression algorithm %q", e.Algorithm)
}

// SignatureMismatchError means the signed content could not be recovered:
// the recomputed digest differs from the stored one, or a signed chunk failed
// to decompress (Err then holds the *FormatError). Chunk is the chunk index,
// or -1 for the container-wide signature.
type SignatureMismatchError struct {
	Chunk int
	Name  string
	Err   error
}

func (e *SignatureMismatchError) Unwrap() error { return e.Err }

func (e *SignatureMismatchError) Error() string {
	if e.Chunk < 0 {
		return "mdd: chunks signature mismatch"
	}
	msg := fmt.Sprintf("mdd: signature mismatch in chunk %d", e.Chunk)
	if e.Name != "" {
		msg += " (" + e.Name + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
