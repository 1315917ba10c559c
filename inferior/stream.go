package inferior

import "github.com/wnxd/nacldbg/encoding"

type pointerStream struct {
	ptr  Pointer
	size int
}

// PointerStream returns a read cursor starting at ptr whose words are size
// bytes wide.
func PointerStream(ptr Pointer, size int) encoding.Stream {
	return &pointerStream{ptr, size}
}

func (ps *pointerStream) BlockSize() int {
	return ps.size
}

func (ps *pointerStream) Offset() uint64 {
	return ps.ptr.Address()
}

func (ps *pointerStream) Skip(n int) error {
	ps.ptr = ps.ptr.Add(uint64(n))
	return nil
}

func (ps *pointerStream) Read(b []byte) (int, error) {
	n, err := ps.ptr.ReadAt(b, 0)
	if err == nil {
		ps.Skip(n)
	}
	return n, err
}
