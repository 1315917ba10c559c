package encoding

// Stream is a forward-only cursor over target memory. BlockSize is the
// width of a target word.
type Stream interface {
	BlockSize() int
	Offset() uint64
	Skip(int) error
	Read([]byte) (int, error)
}
