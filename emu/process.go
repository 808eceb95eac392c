package emu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
)

// StopGrace is how long Stop waits after the interrupt before killing.
const StopGrace = 5 * time.Second

// Process is a long-running command started on a host.
type Process struct {
	host    string
	command string
	logPath string

	cmd     *exec.Cmd
	logFile io.Closer

	// Lifecycle management
	done    chan struct{}
	err     error
	stopped bool
	mu      sync.RWMutex
}

// StartProcess runs argv in the background with stdout and stderr appended to
// logPath. An empty logPath discards the output. ctx only bounds the start;
// the process lives until Stop.
func StartProcess(ctx context.Context, host, command string, argv []string, logPath string) (*Process, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command for host %s", host)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out io.WriteCloser = nopCloser{io.Discard}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = out
	cmd.Stderr = out
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to start %q on %s: %w", command, host, err)
	}

	p := &Process{
		host:    host,
		command: command,
		logPath: logPath,
		cmd:     cmd,
		logFile: out,
		done:    make(chan struct{}),
	}
	go p.wait()

	p.logf("started %q (pid %d)", command, cmd.Process.Pid)
	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	p.logFile.Close()

	p.mu.Lock()
	stopped := p.stopped
	if !stopped {
		p.err = err
	}
	p.mu.Unlock()

	close(p.done)
	if err != nil && !stopped {
		p.logf("exited: %v", err)
	}
}

// Stop interrupts the process group and waits for it to exit, killing it
// after StopGrace. Stopping an exited process is a no-op.
func (p *Process) Stop() error {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		return nil
	default:
	}
	p.stopped = true
	p.mu.Unlock()

	p.logf("stopping %q", p.command)
	if err := interruptGroup(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to signal %s: %w", p.host, err)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(StopGrace):
	}

	if err := killGroup(p.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill %s: %w", p.host, err)
	}
	<-p.done
	return nil
}

// Exited is closed once the process has exited.
func (p *Process) Exited() <-chan struct{} {
	return p.done
}

// Alive reports whether the process is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Err returns the exit error of a process that ended on its own.
func (p *Process) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Process) Host() string    { return p.host }
func (p *Process) Command() string { return p.command }
func (p *Process) LogPath() string { return p.logPath }

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) logf(format string, args ...interface{}) {
	l := logger.Host(p.host)
	l.Info().Msgf(format, args...)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
