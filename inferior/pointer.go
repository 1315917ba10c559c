package inferior

import (
	"bytes"
	"encoding/binary"
)

// stringChunk is the granularity of C-string reads. Chunks are aligned so
// a read never crosses into the next chunk past the terminator.
const stringChunk = 0x10

type Pointer struct {
	mem  Memory
	addr uint64
}

func ToPointer(mem Memory, addr uint64) Pointer {
	return Pointer{mem, addr}
}

func (p Pointer) Address() uint64 {
	return p.addr
}

func (p Pointer) Add(offset uint64) Pointer {
	return Pointer{p.mem, p.addr + offset}
}

func (p Pointer) MemRead(size uint64) ([]byte, error) {
	data, err := p.mem.MemRead(p.addr, size)
	if err != nil {
		return nil, &MemoryError{Addr: p.addr, Size: size, Err: err}
	} else if uint64(len(data)) != size {
		return nil, &MemoryError{Addr: p.addr, Size: size, Err: ErrShortRead}
	}
	return data, nil
}

// MemReadUint reads a little-endian unsigned integer of 1, 2, 4 or 8 bytes.
func (p Pointer) MemReadUint(size int) (uint64, error) {
	switch size {
	case 1, 2, 4, 8:
	default:
		return 0, ErrSizeUnsupported
	}
	data, err := p.MemRead(uint64(size))
	if err != nil {
		return 0, err
	}
	return DecodeUint(data), nil
}

// MemReadString reads a NUL terminated string of at most max bytes. When no
// terminator is found within max bytes the first max bytes are returned and
// truncated is set.
func (p Pointer) MemReadString(max uint64) (str string, truncated bool, err error) {
	var data []byte
	begin := p.addr
	for uint64(len(data)) < max {
		end := Align(begin+1, stringChunk)
		if remain := max - uint64(len(data)); end-begin > remain {
			end = begin + remain
		}
		var buf []byte
		buf, err = p.mem.MemRead(begin, end-begin)
		if err != nil {
			return string(data), false, &MemoryError{Addr: begin, Size: end - begin, Err: err}
		} else if uint64(len(buf)) != end-begin {
			return string(data), false, &MemoryError{Addr: begin, Size: end - begin, Err: ErrShortRead}
		}
		if i := bytes.IndexByte(buf, 0); i != -1 {
			return string(append(data, buf[:i]...)), false, nil
		}
		data = append(data, buf...)
		begin = end
	}
	return string(data), true, nil
}

func (p Pointer) ReadAt(b []byte, off int64) (n int, err error) {
	data, err := p.Add(uint64(off)).MemRead(uint64(len(b)))
	if err != nil {
		return 0, err
	}
	return copy(b, data), nil
}

// DecodeUint interprets up to eight bytes as a little-endian integer.
func DecodeUint(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}
