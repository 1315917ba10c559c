// Package debugger attaches read-only to a live process through procfs.
package debugger

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wnxd/nacldbg/debugger"
	"github.com/wnxd/nacldbg/inferior"
	"github.com/wnxd/nacldbg/loader"
)

const defaultProcRoot = "/proc"

type Option func(*Process)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Process) {
		p.logger = logger
	}
}

// WithProcRoot reads process information below root instead of /proc.
func WithProcRoot(root string) Option {
	return func(p *Process) {
		p.procRoot = root
	}
}

// Process is a debugger.Target backed by /proc/<pid>. Breakpoints are
// recorded, never written: the process is not stopped.
type Process struct {
	pid      int
	procRoot string
	logger   *slog.Logger
	arch     inferior.Arch
	memoryManager
	moduleManager
	symbolManager
	breakpointManager
	taskManager
}

func Open(pid int, opts ...Option) (*Process, error) {
	p := &Process{pid: pid, procRoot: defaultProcRoot}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if _, err := os.Stat(p.path()); errors.Is(err, fs.ErrNotExist) {
		return nil, debugger.ErrProcessNotExists
	} else if err != nil {
		return nil, err
	}
	if err := p.memoryManager.ctor(p); err != nil {
		return nil, err
	}
	p.moduleManager.ctor()
	p.symbolManager.ctor(p)
	p.breakpointManager.ctor(p.logger)
	p.taskManager.ctor(p)
	p.arch = p.readArch()
	return p, nil
}

func (p *Process) Close() error {
	p.symbolManager.dtor()
	return p.memoryManager.dtor()
}

func (p *Process) Arch() inferior.Arch {
	return p.arch
}

// path joins elem below the process directory.
func (p *Process) path(elem ...string) string {
	return filepath.Join(append([]string{p.procRoot, strconv.Itoa(p.pid)}, elem...)...)
}

func (p *Process) readArch() inferior.Arch {
	obj, err := loader.Open(nil, p.path("exe"))
	if err != nil {
		p.logger.Debug("executable unreadable", "pid", p.pid, "error", err)
		return inferior.ARCH_UNKNOWN
	}
	defer obj.Close()
	return obj.Arch()
}
