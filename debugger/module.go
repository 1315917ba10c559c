package debugger

import "fmt"

// Module is one entry of the debugger's module list. OriginalName is the
// name observed in the inferior, Name the path the debugger should open.
// Size is zero when the extent of the module is unknown.
type Module struct {
	Addr         uint64
	Size         uint64
	OriginalName string
	Name         string
}

func (m Module) String() string {
	if m.OriginalName == "" || m.OriginalName == m.Name {
		return fmt.Sprintf("%016X %s", m.Addr, m.Name)
	}
	return fmt.Sprintf("%016X %s (%s)", m.Addr, m.Name, m.OriginalName)
}

type ModuleManager interface {
	Load(modules []Module)
	Modules() []Module
	FindModule(name string) (Module, error)
	FindModuleByAddr(addr uint64) (Module, error)
}

type Symbol struct {
	Name  string
	Value uint64
}
