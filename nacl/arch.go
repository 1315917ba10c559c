package nacl

import (
	"debug/elf"

	"github.com/wnxd/nacldbg/loader"
)

// WindowSize is the extent of the sandbox above its base. It only holds for
// the x86-64 sandbox.
const WindowSize uint64 = 4 << 30

// Environment tells which code a thread is executing. Both environments
// share one instruction set and differ in ABI only.
type Environment int

const (
	HostRuntime Environment = iota
	Sandboxed
)

func Classify(pc, base uint64) Environment {
	if base != 0 && pc >= base && pc-base < WindowSize {
		return Sandboxed
	}
	return HostRuntime
}

func (e Environment) OSABI() elf.OSABI {
	if e == Sandboxed {
		return loader.OSABINaCl
	}
	return elf.ELFOSABI_NONE
}

func (e Environment) String() string {
	if e == Sandboxed {
		return "sandboxed"
	}
	return "host"
}
