package debugger

import (
	"golang.org/x/sys/unix"
)

type memoryManager struct {
	pid int
}

func (mm *memoryManager) ctor(p *Process) error {
	mm.pid = p.pid
	return nil
}

func (mm *memoryManager) dtor() error {
	return nil
}

func (mm *memoryManager) MemRead(addr, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}
	n, err := unix.ProcessVMReadv(mm.pid, local, remote, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
