package debugger

import (
	"debug/elf"
	"errors"
	"sync"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/filesystem"
	"github.com/wnxd/nacldbg/loader"
)

type symbolTable struct {
	bias    uint64
	symbols map[string]uint64
}

// symbolManager resolves symbols of mapped files, reading each file once
// through the process's view of the file system.
type symbolManager struct {
	fs     filesystem.FS
	mu     sync.Mutex
	tables map[string]*symbolTable
}

func (sm *symbolManager) ctor(p *Process) {
	sm.fs = filesystem.SysDirFS(p.path("root"))
	sm.tables = make(map[string]*symbolTable)
}

func (sm *symbolManager) dtor() {
	sm.mu.Lock()
	clear(sm.tables)
	sm.mu.Unlock()
}

// LookupSymbol searches the mapped files in address order and returns the
// relocated address of the first definition.
func (p *Process) LookupSymbol(name string) (uint64, error) {
	modules, err := p.HostModules()
	if err != nil {
		return 0, err
	}
	for _, module := range modules {
		table, err := p.symbolManager.table(module)
		if err != nil {
			p.logger.Debug("symbols unreadable", "module", module.Name, "error", err)
			continue
		}
		if value, ok := table.symbols[name]; ok {
			return table.bias + value, nil
		}
	}
	return 0, debugger.ErrSymbolNotFound
}

func (sm *symbolManager) table(module debugger.Module) (*symbolTable, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if table, ok := sm.tables[module.Name]; ok {
		return table, nil
	}
	table, err := sm.read(module)
	if errors.Is(err, loader.ErrNotELF) {
		table, err = &symbolTable{}, nil
	}
	if err != nil {
		return nil, err
	}
	sm.tables[module.Name] = table
	return table, nil
}

func (sm *symbolManager) read(module debugger.Module) (*symbolTable, error) {
	obj, err := loader.Open(sm.fs, module.Name)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	syms, err := obj.Symbols()
	if err != nil {
		return nil, err
	}
	table := &symbolTable{symbols: make(map[string]uint64, len(syms))}
	if obj.Type() == elf.ET_DYN {
		if addr, ok := obj.LoadAddr(); ok {
			table.bias = module.Addr - addr
		}
	}
	for _, sym := range syms {
		if _, ok := table.symbols[sym.Name]; !ok {
			table.symbols[sym.Name] = sym.Value
		}
	}
	return table, nil
}
