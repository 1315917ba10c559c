package testutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/wnxd/nacldbg/debugger"
)

var ErrUnmapped = errors.New("unmapped address")

const PageSize = 0x1000

// Target is an in-memory inferior. Memory is mapped in zero-filled pages on
// first write; reads touching an unmapped page or an address listed in
// FailReads fail.
type Target struct {
	Pages       map[uint64][]byte
	Syms        map[string]uint64
	Host        []debugger.Module
	HostErr     error
	Breakpoints []uint64
	FailReads   map[uint64]bool
	Reads       int
}

func NewTarget() *Target {
	return &Target{
		Pages:     make(map[uint64][]byte),
		Syms:      make(map[string]uint64),
		FailReads: make(map[uint64]bool),
	}
}

func (t *Target) MemRead(addr, size uint64) ([]byte, error) {
	t.Reads++
	buf := make([]byte, size)
	for i := range buf {
		a := addr + uint64(i)
		page, ok := t.Pages[a&^(PageSize-1)]
		if !ok || t.FailReads[a] {
			return nil, fmt.Errorf("%016X: %w", a, ErrUnmapped)
		}
		buf[i] = page[a&(PageSize-1)]
	}
	return buf, nil
}

func (t *Target) LookupSymbol(name string) (uint64, error) {
	if addr, ok := t.Syms[name]; ok {
		return addr, nil
	}
	return 0, debugger.ErrSymbolNotFound
}

func (t *Target) HostModules() ([]debugger.Module, error) {
	if t.HostErr != nil {
		return nil, t.HostErr
	}
	return slices.Clone(t.Host), nil
}

func (t *Target) InsertLoadBreakpoint(addr uint64) error {
	t.Breakpoints = append(t.Breakpoints, addr)
	return nil
}

func (t *Target) Write(addr uint64, data []byte) {
	for i, b := range data {
		a := addr + uint64(i)
		page, ok := t.Pages[a&^(PageSize-1)]
		if !ok {
			page = make([]byte, PageSize)
			t.Pages[a&^(PageSize-1)] = page
		}
		page[a&(PageSize-1)] = b
	}
}

func (t *Target) WriteUint32(addr uint64, v uint32) {
	t.Write(addr, binary.LittleEndian.AppendUint32(nil, v))
}

func (t *Target) WriteUint64(addr uint64, v uint64) {
	t.Write(addr, binary.LittleEndian.AppendUint64(nil, v))
}

// WriteString stores s followed by a terminator.
func (t *Target) WriteString(addr uint64, s string) {
	t.Write(addr, append([]byte(s), 0))
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
