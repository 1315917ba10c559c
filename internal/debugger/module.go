package debugger

import (
	"slices"
	"sync"

	"github.com/wnxd/nacldbg/debugger"
)

type moduleManager struct {
	mu     sync.Mutex
	loaded []debugger.Module
}

func (mm *moduleManager) ctor() {
}

// Load replaces the module list.
func (mm *moduleManager) Load(modules []debugger.Module) {
	mm.mu.Lock()
	mm.loaded = slices.Clone(modules)
	mm.mu.Unlock()
}

func (mm *moduleManager) Modules() []debugger.Module {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return slices.Clone(mm.loaded)
}

func (mm *moduleManager) FindModule(name string) (debugger.Module, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for _, module := range mm.loaded {
		if module.Name == name || module.OriginalName == name {
			return module, nil
		}
	}
	return debugger.Module{}, debugger.ErrModuleNotFound
}

// FindModuleByAddr finds the module containing addr. Modules of unknown
// size are taken to extend up to the next module.
func (mm *moduleManager) FindModuleByAddr(addr uint64) (debugger.Module, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	var best debugger.Module
	found := false
	for _, module := range mm.loaded {
		if module.Size != 0 {
			if addr >= module.Addr && addr < module.Addr+module.Size {
				return module, nil
			}
			continue
		}
		if module.Addr <= addr && (!found || module.Addr > best.Addr) {
			best, found = module, true
		}
	}
	if !found {
		return debugger.Module{}, debugger.ErrModuleNotFound
	}
	for _, module := range mm.loaded {
		if module.Size != 0 && module.Addr > best.Addr && module.Addr <= addr {
			return debugger.Module{}, debugger.ErrModuleNotFound
		}
	}
	return best, nil
}

// HostModules lists the files mapped into the process, each spanning from
// its lowest to its highest mapping.
func (p *Process) HostModules() ([]debugger.Module, error) {
	regions, err := p.regions()
	if err != nil {
		return nil, err
	}
	var modules []debugger.Module
	index := make(map[string]int)
	for _, region := range regions {
		if !fileBacked(region) {
			continue
		}
		i, ok := index[region.Path]
		if !ok {
			index[region.Path] = len(modules)
			modules = append(modules, debugger.Module{
				Addr:         region.Addr,
				Size:         region.Size,
				OriginalName: region.Path,
				Name:         region.Path,
			})
			continue
		}
		m := &modules[i]
		end := max(m.Addr+m.Size, region.End())
		m.Addr = min(m.Addr, region.Addr)
		m.Size = end - m.Addr
	}
	return modules, nil
}
