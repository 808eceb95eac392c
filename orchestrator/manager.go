package orchestrator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/adamgarcia4/goLearning/ndnagg/emu"
)

// ProcessManager tracks the processes started during a run
type ProcessManager struct {
	procs  []*emu.Process   // maintain start order with slice
	byHost map[string][]int // host name to indices in procs
	mu     sync.RWMutex
}

// NewProcessManager creates an empty process manager
func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		procs:  make([]*emu.Process, 0),
		byHost: make(map[string][]int),
	}
}

// Add records a started process
func (m *ProcessManager) Add(p *emu.Process) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procs = append(m.procs, p)
	m.byHost[p.Host()] = append(m.byHost[p.Host()], len(m.procs)-1)
}

// Processes returns all processes in start order
func (m *ProcessManager) Processes() []*emu.Process {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return a copy to avoid race conditions
	procs := make([]*emu.Process, len(m.procs))
	copy(procs, m.procs)
	return procs
}

// ForHost returns the processes started on one host
func (m *ProcessManager) ForHost(host string) []*emu.Process {
	m.mu.RLock()
	defer m.mu.RUnlock()
	procs := make([]*emu.Process, 0, len(m.byHost[host]))
	for _, i := range m.byHost[host] {
		procs = append(procs, m.procs[i])
	}
	return procs
}

// Len returns the number of tracked processes
func (m *ProcessManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.procs)
}

// StopAll stops every process, newest first, and forgets them
func (m *ProcessManager) StopAll() error {
	m.mu.Lock()
	procs := m.procs
	m.procs = make([]*emu.Process, 0)
	m.byHost = make(map[string][]int)
	m.mu.Unlock()

	var errs []error
	for i := len(procs) - 1; i >= 0; i-- {
		if err := procs[i].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", procs[i].Host(), err))
		}
	}
	return errors.Join(errs...)
}
