package nacl

import (
	"log/slog"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/encoding"
	"github.com/wnxd/nacldbg/inferior"
	"github.com/wnxd/nacldbg/loader"
	"github.com/wnxd/nacldbg/manifest"
)

const (
	// wordSize is the width of every sandboxed pointer.
	wordSize = 4
	// maxNameLen bounds module names read from the loader's list.
	maxNameLen = 511
	// mainName is what the loader calls the object it was started as.
	mainName = "NaClMain"
)

var (
	rDebugLayout = encoding.Layout{
		Name:     "r_debug",
		WordSize: wordSize,
		Fields:   []encoding.Field{{Name: "Map", Offset: 4}},
	}
	linkMapLayout = encoding.Layout{
		Name:     "link_map",
		WordSize: wordSize,
		Fields: []encoding.Field{
			{Name: "Addr", Offset: 0},
			{Name: "Name", Offset: 8},
			{Name: "Next", Offset: 16},
		},
	}
	wordLayout = encoding.Layout{
		Name:     "pointer",
		WordSize: wordSize,
		Fields:   []encoding.Field{{Name: "Value", Offset: 0}},
	}
)

type rDebug struct {
	Map uint32
}

type linkMap struct {
	Addr uint32
	Name uint32
	Next uint32
}

type word struct {
	Value uint32
}

type walker struct {
	mem     inferior.Memory
	sb      *Sandbox
	names   *manifest.Table
	program string
	logger  *slog.Logger
}

func (w *walker) decode(addr uint64, layout encoding.Layout, val any) error {
	ptr := inferior.ToPointer(w.mem, addr)
	if err := encoding.Decode(inferior.PointerStream(ptr, wordSize), layout, val); err != nil {
		return &WalkError{Addr: addr, Err: err}
	}
	return nil
}

func (w *walker) deref(addr uint64) (uint32, error) {
	var v word
	if err := w.decode(addr, wordLayout, &v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

func (w *walker) str(addr uint64) (string, error) {
	s, truncated, err := inferior.ToPointer(w.mem, addr).MemReadString(maxNameLen)
	if err != nil {
		return "", &WalkError{Addr: addr, Err: err}
	}
	if truncated {
		w.logger.Warn("module name truncated", "addr", addr, "limit", maxNameLen)
	}
	return s, nil
}

// argv0 is the real name of the executable the loader started: the first
// element of the loader's argument vector.
func (w *walker) argv0(ldso loader.Interface) (string, error) {
	vec, err := w.deref(w.sb.Translate(ldso.Argv))
	if err != nil {
		return "", err
	}
	arg, err := w.deref(w.sb.Pointer(uint64(vec)))
	if err != nil {
		return "", err
	}
	return w.str(w.sb.Pointer(uint64(arg)))
}

// walk appends one module per node of the loader's list. On failure the
// modules read so far are returned with the error.
func (w *walker) walk(mods []debugger.Module, ldso loader.Interface) ([]debugger.Module, error) {
	var head rDebug
	if err := w.decode(w.sb.Translate(ldso.ListHead), rDebugLayout, &head); err != nil {
		return mods, err
	}
	visited := make(map[uint32]struct{})
	for node := head.Map; node != 0; {
		addr := w.sb.Pointer(uint64(node))
		if _, ok := visited[node]; ok {
			return mods, &WalkError{Addr: addr, Err: ErrListCycle}
		}
		visited[node] = struct{}{}

		var lm linkMap
		if err := w.decode(addr, linkMapLayout, &lm); err != nil {
			return mods, err
		}
		name, err := w.str(w.sb.Pointer(uint64(lm.Name)))
		if err != nil {
			return mods, err
		}
		mod := debugger.Module{Addr: w.sb.Translate(uint64(lm.Addr)), OriginalName: name}
		switch name {
		case "":
			if ldso.Argv == 0 {
				w.logger.Debug("skipping unnamed module without loader argv", "addr", addr)
				node = lm.Next
				continue
			}
			if mod.OriginalName, err = w.argv0(ldso); err != nil {
				return mods, err
			}
			mod.Name = w.names.Resolve(mod.OriginalName)
		case mainName:
			mod.Name = w.program
		default:
			mod.Name = w.names.Resolve(name)
		}
		w.logger.Debug("sandboxed module", "addr", mod.Addr, "name", mod.Name, "observed", mod.OriginalName)
		mods = append(mods, mod)
		node = lm.Next
	}
	return mods, nil
}
