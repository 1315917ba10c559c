// Package testutil builds inputs for tests: small ELF images and a fake
// inferior.
package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// OSABINaCl is the EI_OSABI value of Native Client objects.
const OSABINaCl = 123

// ELF describes a minimal 64-bit little-endian image. Only the dynamic and
// static symbol tables are emitted; no segments are present.
type ELF struct {
	Type           elf.Type
	Machine        elf.Machine
	OSABI          byte
	Entry          uint64
	DynamicSymbols map[string]uint64
	Symbols        map[string]uint64
}

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	s := new(strtab)
	s.buf.WriteByte(0)
	return s
}

func (s *strtab) add(name string) uint32 {
	off := uint32(s.buf.Len())
	s.buf.WriteString(name)
	s.buf.WriteByte(0)
	return off
}

type section struct {
	name    string
	typ     elf.SectionType
	data    []byte
	link    uint32
	info    uint32
	entsize uint64
}

// Bytes renders the image.
func (e ELF) Bytes() []byte {
	typ, machine := e.Type, e.Machine
	if typ == elf.ET_NONE {
		typ = elf.ET_EXEC
	}
	if machine == elf.EM_NONE {
		machine = elf.EM_X86_64
	}

	var sections []section
	if e.DynamicSymbols != nil {
		sections = append(sections, symbolSections(".dynsym", ".dynstr", elf.SHT_DYNSYM, e.DynamicSymbols, len(sections)+1)...)
	}
	if e.Symbols != nil {
		sections = append(sections, symbolSections(".symtab", ".strtab", elf.SHT_SYMTAB, e.Symbols, len(sections)+1)...)
	}
	shstr := newStrtab()
	names := make([]uint32, len(sections))
	for i, s := range sections {
		names[i] = shstr.add(s.name)
	}
	shstrName := shstr.add(".shstrtab")
	sections = append(sections, section{name: ".shstrtab", typ: elf.SHT_STRTAB, data: shstr.buf.Bytes()})
	names = append(names, shstrName)

	const ehsize, shentsize = 64, 64
	var body bytes.Buffer
	offsets := make([]uint64, len(sections))
	for i, s := range sections {
		for body.Len()%8 != 0 {
			body.WriteByte(0)
		}
		offsets[i] = uint64(ehsize + body.Len())
		body.Write(s.data)
	}
	for body.Len()%8 != 0 {
		body.WriteByte(0)
	}
	shoff := uint64(ehsize + body.Len())

	var out bytes.Buffer
	ident := [elf.EI_NIDENT]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT), e.OSABI}
	out.Write(ident[:])
	le := binary.LittleEndian
	binary.Write(&out, le, uint16(typ))
	binary.Write(&out, le, uint16(machine))
	binary.Write(&out, le, uint32(elf.EV_CURRENT))
	binary.Write(&out, le, e.Entry)
	binary.Write(&out, le, uint64(0)) // phoff
	binary.Write(&out, le, shoff)
	binary.Write(&out, le, uint32(0)) // flags
	binary.Write(&out, le, uint16(ehsize))
	binary.Write(&out, le, uint16(56)) // phentsize
	binary.Write(&out, le, uint16(0))  // phnum
	binary.Write(&out, le, uint16(shentsize))
	binary.Write(&out, le, uint16(len(sections)+1))
	binary.Write(&out, le, uint16(len(sections))) // shstrndx
	out.Write(body.Bytes())

	out.Write(make([]byte, shentsize))
	for i, s := range sections {
		sh := elf.Section64{
			Name:      names[i],
			Type:      uint32(s.typ),
			Off:       offsets[i],
			Size:      uint64(len(s.data)),
			Link:      s.link,
			Info:      s.info,
			Addralign: 1,
			Entsize:   s.entsize,
		}
		if s.typ == elf.SHT_SYMTAB || s.typ == elf.SHT_DYNSYM {
			sh.Addralign = 8
		}
		binary.Write(&out, le, sh)
	}
	return out.Bytes()
}

// symbolSections renders a symbol table and its string table. first is the
// section index the symbol table will get.
func symbolSections(symName, strName string, typ elf.SectionType, symbols map[string]uint64, first int) []section {
	str := newStrtab()
	var syms bytes.Buffer
	binary.Write(&syms, binary.LittleEndian, elf.Sym64{})
	for _, name := range sortedKeys(symbols) {
		binary.Write(&syms, binary.LittleEndian, elf.Sym64{
			Name:  str.add(name),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT),
			Shndx: uint16(elf.SHN_ABS),
			Value: symbols[name],
		})
	}
	return []section{
		{name: symName, typ: typ, data: syms.Bytes(), link: uint32(first + 1), info: 1, entsize: elf.Sym64Size},
		{name: strName, typ: elf.SHT_STRTAB, data: str.buf.Bytes()},
	}
}
