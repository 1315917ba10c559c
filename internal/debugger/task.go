package debugger

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wnxd/nacldbg/debugger"
)

type taskManager struct {
	p *Process
}

func (tm *taskManager) ctor(p *Process) {
	tm.p = p
}

// Threads lists the process's threads that are stopped in the kernel with
// a known program counter. Running threads are skipped.
func (tm *taskManager) Threads() ([]debugger.Thread, error) {
	entries, err := os.ReadDir(tm.p.path("task"))
	if err != nil {
		return nil, err
	}
	var threads []debugger.Thread
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		data, err := os.ReadFile(tm.p.path("task", entry.Name(), "syscall"))
		if err != nil {
			tm.p.logger.Debug("thread state unreadable", "tid", tid, "error", err)
			continue
		}
		pc, ok, err := parseSyscall(string(data))
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", tid, err)
		} else if !ok {
			continue
		}
		threads = append(threads, debugger.Thread{ID: tid, PC: pc})
	}
	slices.SortFunc(threads, func(a, b debugger.Thread) int { return a.ID - b.ID })
	return threads, nil
}

// parseSyscall extracts the program counter, the last field of
// /proc/<pid>/task/<tid>/syscall. A running thread has none.
func parseSyscall(data string) (uint64, bool, error) {
	fields := strings.Fields(data)
	if len(fields) == 0 {
		return 0, false, fmt.Errorf("syscall: empty")
	}
	if fields[0] == "running" {
		return 0, false, nil
	}
	if len(fields) < 3 {
		return 0, false, fmt.Errorf("syscall: malformed %q", data)
	}
	pc, err := strconv.ParseUint(strings.TrimPrefix(fields[len(fields)-1], "0x"), 16, 64)
	if err != nil {
		return 0, false, fmt.Errorf("syscall: malformed %q: %w", data, err)
	}
	return pc, true, nil
}
