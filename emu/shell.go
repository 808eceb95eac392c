package emu

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
)

// Template placeholders.
const (
	TopologyPlaceholder = "{topology}"
	HostPlaceholder     = "{host}"
	CmdPlaceholder      = "{cmd}"
)

const (
	DefaultExecTemplate   = "ip netns exec {host} sh -c {cmd}"
	DefaultCleanupCommand = "mn -c"
)

// ShellEngine drives an emulator through shell command templates. Every
// template is run with sh -c after substitution.
type ShellEngine struct {
	// UpCommand brings the network up and keeps running while it is up.
	// Empty means the network is managed outside this process.
	UpCommand string
	// DownCommand tears the network down after UpCommand is stopped.
	DownCommand    string
	CleanupCommand string
	// ExecTemplate wraps a command so it runs inside a host.
	ExecTemplate string
	// Tools must be found on PATH for Verify to pass.
	Tools []string
	// LogPath receives the output of UpCommand.
	LogPath string
}

func NewShellEngine() *ShellEngine {
	return &ShellEngine{
		ExecTemplate:   DefaultExecTemplate,
		CleanupCommand: DefaultCleanupCommand,
	}
}

func (e *ShellEngine) Cleanup(ctx context.Context) error {
	if e.CleanupCommand == "" {
		return nil
	}
	logger.Infof("*** Cleaning up emulation ***")
	if out, err := shell(ctx, e.CleanupCommand); err != nil {
		return fmt.Errorf("cleanup %q: %w: %s", e.CleanupCommand, err, strings.TrimSpace(out))
	}
	return nil
}

func (e *ShellEngine) Verify(ctx context.Context) error {
	var errs []error
	for _, tool := range e.Tools {
		if _, err := exec.LookPath(tool); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingTool, tool))
		}
	}
	return errors.Join(errs...)
}

func (e *ShellEngine) Start(ctx context.Context, topologyPath string) (Network, error) {
	hosts, err := ReadHosts(topologyPath)
	if err != nil {
		return nil, err
	}

	n := &shellNetwork{engine: e, hosts: hosts}
	if e.UpCommand == "" {
		logger.Warnf("no emulation up command configured, using the running network")
		return n, nil
	}

	command := strings.ReplaceAll(e.UpCommand, TopologyPlaceholder, Quote(topologyPath))
	up, err := StartProcess(ctx, "emu", command, []string{"sh", "-c", command}, e.LogPath)
	if err != nil {
		return nil, err
	}
	n.up = up
	return n, nil
}

// ReadHosts returns the sorted [nodes] section of a topology file.
func ReadHosts(topologyPath string) ([]string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      ":",
		AllowShadows:            true,
		SkipUnrecognizableLines: true,
	}, topologyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology %s: %w", topologyPath, err)
	}

	section, err := cfg.GetSection("nodes")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHosts, topologyPath)
	}
	hosts := section.KeyStrings()
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHosts, topologyPath)
	}
	slices.Sort(hosts)
	return hosts, nil
}

type shellNetwork struct {
	engine *ShellEngine
	hosts  []string
	up     *Process
}

func (n *shellNetwork) Hosts() []string {
	return slices.Clone(n.hosts)
}

func (n *shellNetwork) Host(name string) (Host, bool) {
	if _, found := slices.BinarySearch(n.hosts, name); !found {
		return nil, false
	}
	return &shellHost{name: name, template: n.engine.ExecTemplate}, true
}

func (n *shellNetwork) Emulator() *Process {
	return n.up
}

func (n *shellNetwork) Stop(ctx context.Context) error {
	var errs []error
	if n.up != nil {
		errs = append(errs, n.up.Stop())
	}
	if n.engine.DownCommand != "" {
		if out, err := shell(ctx, n.engine.DownCommand); err != nil {
			errs = append(errs, fmt.Errorf("down %q: %w: %s", n.engine.DownCommand, err, strings.TrimSpace(out)))
		}
	}
	return errors.Join(errs...)
}

type shellHost struct {
	name     string
	template string
}

func (h *shellHost) Name() string { return h.name }

func (h *shellHost) wrap(command string) string {
	template := h.template
	if template == "" {
		template = DefaultExecTemplate
	}
	return strings.NewReplacer(
		HostPlaceholder, h.name,
		CmdPlaceholder, Quote(command),
	).Replace(template)
}

func (h *shellHost) Start(ctx context.Context, command, logPath string) (*Process, error) {
	return StartProcess(ctx, h.name, command, []string{"sh", "-c", h.wrap(command)}, logPath)
}

func (h *shellHost) Run(ctx context.Context, command string) (string, error) {
	return shell(ctx, h.wrap(command))
}

func shell(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	return string(out), err
}

// Quote single-quotes s for sh.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
