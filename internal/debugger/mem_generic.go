//go:build !linux

package debugger

import (
	"io"
	"os"
)

type memoryManager struct {
	mem *os.File
}

func (mm *memoryManager) ctor(p *Process) error {
	f, err := os.Open(p.path("mem"))
	if err != nil {
		return err
	}
	mm.mem = f
	return nil
}

func (mm *memoryManager) dtor() error {
	return mm.mem.Close()
}

func (mm *memoryManager) MemRead(addr, size uint64) ([]byte, error) {
	buf := make([]byte, size)
	n, err := mm.mem.ReadAt(buf, int64(addr))
	if err == io.EOF {
		err = nil
	}
	return buf[:n], err
}
