// Package inferior describes the debugged process as seen through its
// memory: a blocking remote read primitive and typed pointers on top of it.
package inferior

// Memory is the blocking remote-memory transport of an inferior.
// MemRead returns exactly size bytes or an error.
type Memory interface {
	MemRead(addr, size uint64) ([]byte, error)
}

// Region is one mapped range of the inferior's address space.
type Region struct {
	Addr, Size uint64
	Prot       MemProt
	Offset     uint64
	Path       string
}

type MemProt int

const (
	MEM_PROT_NONE MemProt = 0
	MEM_PROT_READ MemProt = 1 << (iota - 1)
	MEM_PROT_WRITE
	MEM_PROT_EXEC

	MEM_PROT_ALL = MEM_PROT_READ | MEM_PROT_WRITE | MEM_PROT_EXEC
)

func (r Region) End() uint64 {
	return r.Addr + r.Size
}

func (r Region) Contains(addr uint64) bool {
	return addr >= r.Addr && addr < r.End()
}
