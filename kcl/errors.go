package kcl

import "fmt"

// ParseError describes malformed geometry data. Offset is the byte offset where decoding
// gave up.
type ParseError struct {
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed collision geometry at offset 0x%x: %s", e.Offset, e.Reason)
}

func newParseError(offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
