package classfile

import "errors"

// Input errors, per spec §7's taxonomy. Every pipeline stage that detects
// one of these stops and surfaces it to the caller unchanged; later stages
// are never invoked.
var (
	// ErrMalformedClass means the magic number, version, or a structural
	// invariant of the class file was violated.
	ErrMalformedClass = errors.New("malformed class file")
	// ErrUnsupportedConstant means a constant-pool entry needed by
	// decoding could not be understood.
	ErrUnsupportedConstant = errors.New("unsupported constant pool entry")
	// ErrClassNotFound means the named class resource could not be
	// located by the caller's loader.
	ErrClassNotFound = errors.New("class not found")
)
