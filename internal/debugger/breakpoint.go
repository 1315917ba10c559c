package debugger

import (
	"log/slog"
	"slices"
	"sync"
)

// breakpointManager keeps the breakpoints requested by the sandbox support.
type breakpointManager struct {
	logger *slog.Logger
	mu     sync.Mutex
	addrs  []uint64
}

func (bm *breakpointManager) ctor(logger *slog.Logger) {
	bm.logger = logger
}

func (bm *breakpointManager) InsertLoadBreakpoint(addr uint64) error {
	bm.mu.Lock()
	bm.addrs = append(bm.addrs, addr)
	bm.mu.Unlock()
	bm.logger.Debug("load breakpoint requested", "addr", addr)
	return nil
}

func (bm *breakpointManager) Breakpoints() []uint64 {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return slices.Clone(bm.addrs)
}
