package nacl

import (
	"errors"
	"fmt"
)

var (
	ErrWalkFailed   = errors.New("loader module list walk failed")
	ErrListCycle    = errors.New("loader module list loops")
	ErrNoEntryPoint = errors.New("no sandboxed entry point")
)

// WalkError ends a module list walk. The modules gathered before the
// failure are still returned alongside it.
type WalkError struct {
	Addr uint64
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%v at %016X: %v", ErrWalkFailed, e.Addr, e.Err)
}

func (e *WalkError) Unwrap() []error {
	return []error{ErrWalkFailed, e.Err}
}
