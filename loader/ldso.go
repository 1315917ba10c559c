package loader

import (
	"github.com/wnxd/nacldbg/filesystem"
)

// Symbols exported by the sandboxed dynamic loader for debuggers.
const (
	NotifySymbol   = "_dl_debug_state"
	ListHeadSymbol = "_r_debug"
	ArgvSymbol     = "_dl_argv"
)

// Interface locates the sandboxed dynamic loader's bookkeeping. Addresses
// are untranslated: add the sandbox base to reach them in the inferior.
type Interface struct {
	// Notify is the function the loader calls after changing its list.
	Notify uint64
	// ListHead is the debugger rendezvous structure holding the list head.
	ListHead uint64
	// Argv is the loader's copy of its command line.
	Argv uint64
}

// Dynamic reports whether the loader's module list was found.
func (i Interface) Dynamic() bool {
	return i.ListHead != 0
}

// Discover scans the dynamic symbol table of the program on disk for the
// loader interface. Symbols that are absent leave their field zero.
func Discover(fsys filesystem.FS, program string) (Interface, error) {
	var ldso Interface
	obj, err := Open(fsys, program)
	if err != nil {
		return ldso, err
	}
	defer obj.Close()
	syms, err := obj.DynamicSymbols()
	if err != nil {
		return ldso, err
	}
	for _, sym := range syms {
		switch sym.Name {
		case NotifySymbol:
			ldso.Notify = sym.Value
		case ListHeadSymbol:
			ldso.ListHead = sym.Value
		case ArgvSymbol:
			ldso.Argv = sym.Value
		}
	}
	return ldso, nil
}
