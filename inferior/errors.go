package inferior

import (
	"errors"
	"fmt"
)

var (
	ErrSizeUnsupported = errors.New("read size unsupported")
	ErrShortRead       = errors.New("short read")
)

// MemoryError reports a failed remote read.
type MemoryError struct {
	Addr, Size uint64
	Err        error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("read %d bytes at %016X: %v", e.Size, e.Addr, e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}
