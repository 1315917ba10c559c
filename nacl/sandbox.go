package nacl

import (
	"errors"
	"log/slog"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/inferior"
)

// BaseSymbol is the host runtime variable holding the sandbox base once the
// sandbox is mapped.
const BaseSymbol = "nacl_global_xlate_base"

type baseSource interface {
	inferior.Memory
	debugger.SymbolTable
}

// Sandbox tracks the translation offset of the one active sandbox. A zero
// base means no sandbox is mapped yet.
type Sandbox struct {
	base uint64
}

func (sb *Sandbox) Base() uint64 {
	return sb.base
}

func (sb *Sandbox) Reset() {
	sb.base = 0
}

// Refresh reads the base from the inferior. A missing symbol or unreadable
// value leaves the base zero.
func (sb *Sandbox) Refresh(target baseSource, logger *slog.Logger) uint64 {
	sb.base = 0
	addr, err := target.LookupSymbol(BaseSymbol)
	if err != nil {
		if !errors.Is(err, debugger.ErrSymbolNotFound) {
			logger.Warn("sandbox base symbol lookup failed", "symbol", BaseSymbol, "error", err)
		}
		return 0
	}
	base, err := inferior.ToPointer(target, addr).MemReadUint(8)
	if err != nil {
		logger.Warn("sandbox base unreadable", "symbol", BaseSymbol, "addr", addr, "error", err)
		return 0
	}
	sb.base = base
	return base
}

// Translate turns a sandbox address into a debugger address.
func (sb *Sandbox) Translate(addr uint64) uint64 {
	return sb.base + addr
}

// Pointer converts a pointer value stored inside the sandbox. Sandboxed
// pointers are 32 bits wide and null stays null.
func (sb *Sandbox) Pointer(raw uint64) uint64 {
	if raw == 0 {
		return 0
	}
	return sb.base + uint64(uint32(raw))
}

func (sb *Sandbox) Contains(addr uint64) bool {
	return Classify(addr, sb.base) == Sandboxed
}
