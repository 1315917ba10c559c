// Package manifest maps the names a sandboxed loader uses internally to the
// files on the debugger's disk.
//
// A manifest is a small JSON document:
//
//	{
//	  "program": {"x86-64": {"url": "runnable-ld.so"}},
//	  "files": {
//	    "main.nexe": {"x86-64": {"url": "main.nexe"}},
//	    "libc.so.3c8d1f2e": {"x86-64": {"url": "lib64/libc.so.3c8d1f2e"}}
//	  }
//	}
//
// Relative URLs are resolved against the directory of the manifest.
package manifest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/wnxd/nacldbg/filesystem"
)

// libPrefix is prepended by the sandboxed loader to ask the runtime to
// open a file as a shared object. It is not part of the real name.
const libPrefix = "/lib/"

type Entry struct {
	SandboxName string
	Path        string
}

type Option func(*Table)

// WithFS makes the table open manifests through fsys.
func WithFS(fsys filesystem.FS) Option {
	return func(t *Table) {
		t.fs = fsys
	}
}

// WithStrictDuplicates rejects manifests that name a file twice.
func WithStrictDuplicates() Option {
	return func(t *Table) {
		t.strict = true
	}
}

// Table holds the name mapping and the program and IRT selections. The
// zero value is empty and reads files through the host file system.
type Table struct {
	entries []Entry
	program string
	irt     string
	fs      filesystem.FS
	strict  bool
}

func NewTable(opts ...Option) *Table {
	t := new(Table)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load parses the manifest at name into a fresh table and swaps it in only
// when parsing succeeded. The IRT selection survives the swap.
func (t *Table) Load(name string) error {
	fsys := t.fs
	if fsys == nil {
		fsys = filesystem.Sys()
	}
	file, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	b := &builder{dir: filepath.Dir(name), strict: t.strict}
	if err = Parse(file, b); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	t.entries, t.program = b.entries, b.program
	return nil
}

// Lookup finds the file registered for a sandbox name. A leading "/lib/"
// is ignored; the first matching entry wins.
func (t *Table) Lookup(name string) (string, bool) {
	name = strings.TrimPrefix(name, libPrefix)
	for _, e := range t.entries {
		if e.SandboxName == name {
			return e.Path, true
		}
	}
	return "", false
}

// Resolve is Lookup falling back to the name itself, minus "/lib/".
func (t *Table) Resolve(name string) string {
	if p, ok := t.Lookup(name); ok {
		return p
	}
	return strings.TrimPrefix(name, libPrefix)
}

func (t *Table) Program() (string, bool) {
	return t.program, t.program != ""
}

func (t *Table) IRT() (string, bool) {
	return t.irt, t.irt != ""
}

// SetProgram selects the program directly, dropping any parsed mapping.
func (t *Table) SetProgram(name string) {
	t.entries = nil
	t.program = name
}

// SetIRT selects the IRT directly, dropping any parsed mapping.
func (t *Table) SetIRT(name string) {
	t.entries = nil
	t.irt = name
}

func (t *Table) Reset() {
	t.entries = nil
	t.program = ""
	t.irt = ""
}

func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

type builder struct {
	dir     string
	strict  bool
	files   map[string]struct{}
	entries []Entry
	program string
}

func (b *builder) ProgramURL(url string) error {
	b.program = b.resolve(url)
	// The loader may name itself by its basename instead of the sentinel.
	b.add(path.Base(url), b.program)
	return nil
}

func (b *builder) FileURL(name, url string) error {
	if _, ok := b.files[name]; ok && b.strict {
		return &DuplicateEntryError{Name: name}
	}
	if b.files == nil {
		b.files = make(map[string]struct{})
	}
	b.files[name] = struct{}{}
	b.add(name, b.resolve(url))
	return nil
}

func (b *builder) add(name, p string) {
	for _, e := range b.entries {
		if e.SandboxName == name {
			return
		}
	}
	b.entries = append(b.entries, Entry{name, p})
}

func (b *builder) resolve(url string) string {
	if filepath.IsAbs(url) {
		return url
	}
	return filepath.Join(b.dir, url)
}
