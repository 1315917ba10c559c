// Package loader reads sandboxed objects from disk.
package loader

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/filesystem"
	"github.com/wnxd/nacldbg/inferior"
)

// OSABINaCl is the EI_OSABI byte Native Client toolchains stamp on their
// objects.
const OSABINaCl elf.OSABI = 123

var ErrNotELF = errors.New("not an ELF object")

// Object is an ELF file opened from disk, never from the live inferior.
type Object struct {
	name string
	c    io.Closer
	f    *elf.File
}

func Open(fsys filesystem.FS, name string) (*Object, error) {
	if fsys == nil {
		fsys = filesystem.Sys()
	}
	file, err := filesystem.OpenFile(fsys, name)
	if err != nil {
		return nil, err
	}
	f, err := elf.NewFile(file)
	if err != nil {
		file.Close()
		var fe *elf.FormatError
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrNotELF, err)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Object{name: name, c: file, f: f}, nil
}

func (o *Object) Close() error {
	return o.c.Close()
}

func (o *Object) Type() elf.Type {
	return o.f.Type
}

func (o *Object) Arch() inferior.Arch {
	switch o.f.Machine {
	case elf.EM_ARM:
		return inferior.ARCH_ARM
	case elf.EM_AARCH64:
		return inferior.ARCH_ARM64
	case elf.EM_386:
		return inferior.ARCH_X86
	case elf.EM_X86_64:
		return inferior.ARCH_X86_64
	}
	return inferior.ARCH_UNKNOWN
}

func (o *Object) EntryAddr() uint64 {
	return o.f.Entry
}

func (o *Object) OSABI() elf.OSABI {
	return o.f.OSABI
}

func (o *Object) IsNaCl() bool {
	return o.OSABI() == OSABINaCl
}

// LoadAddr is the page-aligned virtual address of the first loadable
// segment; subtracting it from the address the segment is mapped at gives
// the load bias.
func (o *Object) LoadAddr() (uint64, bool) {
	for _, p := range o.f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if p.Align > 1 {
			return p.Vaddr &^ (p.Align - 1), true
		}
		return p.Vaddr, true
	}
	return 0, false
}

// DynamicSymbols lists the dynamic symbol table. An object without one
// yields no symbols and no error.
func (o *Object) DynamicSymbols() ([]debugger.Symbol, error) {
	return o.symbols(o.f.DynamicSymbols)
}

// Symbols lists the static and dynamic symbol tables.
func (o *Object) Symbols() ([]debugger.Symbol, error) {
	static, err := o.symbols(o.f.Symbols)
	if err != nil {
		return nil, err
	}
	dynamic, err := o.DynamicSymbols()
	if err != nil {
		return nil, err
	}
	return append(static, dynamic...), nil
}

func (o *Object) FindSymbol(name string) (uint64, error) {
	syms, err := o.Symbols()
	if err != nil {
		return 0, err
	}
	for _, sym := range syms {
		if sym.Name == name {
			return sym.Value, nil
		}
	}
	return 0, debugger.ErrSymbolNotFound
}

func (o *Object) symbols(read func() ([]elf.Symbol, error)) ([]debugger.Symbol, error) {
	syms, err := read()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}
	out := make([]debugger.Symbol, 0, len(syms))
	for _, sym := range syms {
		if sym.Section == elf.SHN_UNDEF {
			continue
		}
		out = append(out, debugger.Symbol{Name: sym.Name, Value: sym.Value})
	}
	return out, nil
}
