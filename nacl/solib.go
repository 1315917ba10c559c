// Package nacl makes a debugger attached to a Native Client host runtime see
// the modules loaded inside the sandbox.
package nacl

import (
	"debug/elf"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/filesystem"
	"github.com/wnxd/nacldbg/loader"
	"github.com/wnxd/nacldbg/manifest"
)

// OverlayEventSymbol is the host runtime hook signalling that a new
// sandbox has been set up.
const OverlayEventSymbol = "_ovly_debug_event"

// State is everything the module list depends on besides the inferior.
type State struct {
	Manifest *manifest.Table
	Sandbox  Sandbox

	// bpBase is the sandbox base the load breakpoint was installed for.
	bpBase uint64
	// entry is the highest sandboxed entry point seen so far.
	entry uint64
}

type Option func(*Solib)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Solib) {
		s.logger = logger
	}
}

// WithFS opens the program, the IRT and loaded objects through fsys.
func WithFS(fsys filesystem.FS) Option {
	return func(s *Solib) {
		s.fs = fsys
	}
}

// WithManifest replaces the default empty name table.
func WithManifest(table *manifest.Table) Option {
	return func(s *Solib) {
		s.state.Manifest = table
	}
}

// Solib builds the module list of one inferior.
type Solib struct {
	target debugger.Target
	fs     filesystem.FS
	logger *slog.Logger
	state  State
}

func New(target debugger.Target, opts ...Option) *Solib {
	s := &Solib{target: target}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = filesystem.Sys()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.state.Manifest == nil {
		s.state.Manifest = manifest.NewTable(manifest.WithFS(s.fs))
	}
	return s
}

func (s *Solib) State() *State {
	return &s.state
}

// Rebuild returns the host modules followed by the sandboxed ones. When the
// loader's list cannot be walked completely the modules found so far are
// returned together with the error.
func (s *Solib) Rebuild() ([]debugger.Module, error) {
	mods, err := s.target.HostModules()
	if err != nil {
		return nil, fmt.Errorf("host modules: %w", err)
	}
	table := s.state.Manifest
	program, ok := table.Program()
	if !ok {
		return mods, nil
	}
	base := s.state.Sandbox.Refresh(s.target, s.logger)
	if base == 0 {
		s.state.bpBase = 0
		return mods, nil
	}
	if irt, ok := table.IRT(); ok {
		mods = append(mods, debugger.Module{Addr: base, OriginalName: irt, Name: irt})
	}

	ldso, err := loader.Discover(s.fs, program)
	if errors.Is(err, loader.ErrNotELF) {
		s.logger.Warn("program is not an ELF object", "program", program)
	} else if err != nil {
		return mods, fmt.Errorf("discover loader interface: %w", err)
	}
	if !ldso.Dynamic() {
		return append(mods, debugger.Module{Addr: base, OriginalName: program, Name: program}), nil
	}

	w := &walker{mem: s.target, sb: &s.state.Sandbox, names: table, program: program, logger: s.logger}
	if mods, err = w.walk(mods, ldso); err != nil {
		s.logger.Warn("sandboxed module list incomplete", "error", err)
		return mods, err
	}
	if ldso.Notify == 0 {
		s.logger.Warn("loader notify function not found, no load breakpoint", "symbol", loader.NotifySymbol)
	} else if s.state.bpBase != base {
		addr := base + ldso.Notify
		if err = s.target.InsertLoadBreakpoint(addr); err != nil {
			s.logger.Warn("load breakpoint not installed", "addr", addr, "error", err)
		} else {
			s.logger.Debug("load breakpoint installed", "addr", addr)
			s.state.bpBase = base
		}
	}
	return mods, nil
}

// LoadManifest replaces the name table with the manifest at name.
func (s *Solib) LoadManifest(name string) ([]debugger.Module, error) {
	if err := s.state.Manifest.Load(name); err != nil {
		return nil, err
	}
	return s.Rebuild()
}

func (s *Solib) SetProgram(name string) ([]debugger.Module, error) {
	s.state.Manifest.SetProgram(name)
	return s.Rebuild()
}

func (s *Solib) SetIRT(name string) ([]debugger.Module, error) {
	s.state.Manifest.SetIRT(name)
	return s.Rebuild()
}

// InferiorCreated forgets the previous run and arms the host runtime's
// sandbox creation hook when it is present.
func (s *Solib) InferiorCreated() error {
	s.state.Sandbox.Reset()
	s.state.bpBase = 0
	s.state.entry = 0
	addr, err := s.target.LookupSymbol(OverlayEventSymbol)
	if errors.Is(err, debugger.ErrSymbolNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	return s.target.InsertLoadBreakpoint(addr)
}

// ModuleLoaded records the entry point of a newly opened sandboxed
// executable. Host objects and shared libraries are ignored.
func (s *Solib) ModuleLoaded(name string) error {
	obj, err := loader.Open(s.fs, name)
	if err != nil {
		return err
	}
	defer obj.Close()
	if !obj.IsNaCl() || obj.Type() != elf.ET_EXEC {
		return nil
	}
	if entry := s.state.Sandbox.Base() + obj.EntryAddr(); entry > s.state.entry {
		s.state.entry = entry
	}
	return nil
}

func (s *Solib) EntryPoint() (uint64, error) {
	if s.state.entry == 0 {
		return 0, ErrNoEntryPoint
	}
	return s.state.entry, nil
}

func (s *Solib) ThreadEnvironment(pc uint64) Environment {
	return Classify(pc, s.state.Sandbox.Base())
}
