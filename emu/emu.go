// Package emu abstracts the network emulator the experiments run in. An
// Engine brings up a Network from a topology file; each Host of that network
// can run short commands and start long-lived processes.
package emu

import (
	"context"
	"errors"
)

var (
	ErrHostNotFound = errors.New("host not in network")
	ErrMissingTool  = errors.New("required tool not found")
	ErrNoHosts      = errors.New("topology declares no hosts")
)

// Engine manages the lifecycle of an emulated network.
type Engine interface {
	// Cleanup removes leftovers of earlier runs.
	Cleanup(ctx context.Context) error
	// Verify checks that the tools the engine depends on are installed.
	Verify(ctx context.Context) error
	// Start brings the network described by topologyPath up.
	Start(ctx context.Context, topologyPath string) (Network, error)
}

// Network is a running emulation.
type Network interface {
	// Hosts returns the host names in lexicographic order.
	Hosts() []string
	Host(name string) (Host, bool)
	Stop(ctx context.Context) error
}

// Emulated is implemented by networks whose emulator runs as a Process.
// Emulator returns nil when the network was already running.
type Emulated interface {
	Emulator() *Process
}

// Host is one emulated node.
type Host interface {
	Name() string
	// Start launches a long-running command whose output goes to logPath.
	Start(ctx context.Context, command, logPath string) (*Process, error)
	// Run executes a command to completion and returns its combined output.
	Run(ctx context.Context, command string) (string, error)
}
