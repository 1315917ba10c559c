package manifest

import (
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed manifest")

// SyntaxError describes where and why a manifest was rejected.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func newSyntaxError(off int64, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: off, Msg: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed manifest at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// DuplicateEntryError is returned in strict mode when two files share a
// sandbox name.
type DuplicateEntryError struct {
	Name string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate manifest entry %q", e.Name)
}
