package encoding

import (
	"fmt"
	"slices"
)

// Field places one named member of a target structure. A zero Size means
// one word of the layout.
type Field struct {
	Name   string
	Offset uint64
	Size   int
}

// Layout is the declarative description of a target structure: which
// members are read, where they live and how wide they are.
type Layout struct {
	Name     string
	WordSize int
	Fields   []Field
}

func (l Layout) fieldSize(f Field, bs int) int {
	switch {
	case f.Size != 0:
		return f.Size
	case l.WordSize != 0:
		return l.WordSize
	}
	return bs
}

// Size is the number of bytes spanned from the start of the structure to
// the end of its last described member.
func (l Layout) Size(bs int) uint64 {
	var size uint64
	for _, f := range l.Fields {
		size = max(size, f.Offset+uint64(l.fieldSize(f, bs)))
	}
	return size
}

func (l Layout) sorted() []Field {
	fields := slices.Clone(l.Fields)
	slices.SortStableFunc(fields, func(a, b Field) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return fields
}

func (l Layout) validate(bs int) error {
	fields := l.sorted()
	for i, f := range fields {
		switch l.fieldSize(f, bs) {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%s.%s: %w", l.Name, f.Name, ErrFieldSize)
		}
		if i > 0 {
			prev := fields[i-1]
			if prev.Offset+uint64(l.fieldSize(prev, bs)) > f.Offset {
				return fmt.Errorf("%s.%s overlaps %s: %w", l.Name, f.Name, prev.Name, ErrFieldOverlap)
			}
		}
	}
	return nil
}
