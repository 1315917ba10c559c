// Package debugger declares the collaborators the sandbox support consumes
// from the surrounding debugger.
package debugger

import (
	"github.com/wnxd/nacldbg/inferior"
)

// SymbolTable resolves symbols of the live inferior (the host runtime and
// whatever it has loaded). Missing symbols yield ErrSymbolNotFound.
type SymbolTable interface {
	LookupSymbol(name string) (uint64, error)
}

// ModuleSource is the generic, sandbox-unaware module discovery of the host
// process.
type ModuleSource interface {
	HostModules() ([]Module, error)
}

// BreakpointManager installs the breakpoint reported as a module-list
// change event.
type BreakpointManager interface {
	InsertLoadBreakpoint(addr uint64) error
}

type Target interface {
	inferior.Memory
	SymbolTable
	ModuleSource
	BreakpointManager
}

type Thread struct {
	ID int
	PC uint64
}

type ThreadLister interface {
	Threads() ([]Thread, error)
}
