// Package orchestrator brings an experiment up on an emulated network: the
// network itself, forwarding and routing daemons on every host, then the
// producer, aggregator and consumer applications, in that order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/adamgarcia4/goLearning/ndnagg/emu"
	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
)

// Orchestrator runs the stages of one experiment
type Orchestrator struct {
	cfg       *Config
	engine    emu.Engine
	procs     *ProcessManager
	observers []Observer
	pattern   *regexp.Regexp

	mu      sync.Mutex
	current Stage
	network emu.Network
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers an observer of stage events.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// New creates an orchestrator. The config is validated.
func New(cfg *Config, engine emu.Engine, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &Orchestrator{
		cfg:    cfg,
		engine: engine,
		procs:  NewProcessManager(),
	}
	if cfg.ReadyPattern != "" {
		o.pattern = regexp.MustCompile(cfg.ReadyPattern)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Processes returns the manager of the processes started so far.
func (o *Orchestrator) Processes() *ProcessManager {
	return o.procs
}

// Run executes the stages in order and hands the live network back to the
// caller, who owns it until Shutdown. On failure the run halts; started
// processes and the network are torn down when StopOnFailure is set.
// Run may only be called once.
func (o *Orchestrator) Run(ctx context.Context, m *Manifest) (emu.Network, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	o.mu.Lock()
	started := o.current != 0
	o.mu.Unlock()
	if started {
		return nil, fmt.Errorf("%w: run already started", ErrStageOrder)
	}

	logger.Infof("*** Starting experiment %s (%s) ***", m.Label, m.Variant)
	o.warnUnreachable(m)

	if err := o.engine.Cleanup(ctx); err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	if err := o.engine.Verify(ctx); err != nil {
		return nil, fmt.Errorf("verify dependencies: %w", err)
	}

	stages := []struct {
		stage Stage
		run   func(context.Context, *Manifest) error
	}{
		{StageNetworkUp, o.networkUp},
		{StageForwardingUp, o.forwardingUp},
		{StageRoutingUp, o.routingUp},
		{StageProducersUp, o.producersUp},
		{StageAggregatorsUp, o.aggregatorsUp},
		{StageRouteAdvertise, o.advertise},
		{StageConsumerUp, o.consumerUp},
	}
	for _, s := range stages {
		if err := o.runStage(ctx, s.stage, m, s.run); err != nil {
			return nil, o.fail(ctx, err)
		}
	}

	if err := o.enter(StageInteractiveHandoff); err != nil {
		return nil, o.fail(ctx, err)
	}
	o.emit(StageInteractiveHandoff, StatusDone, nil)
	return o.Network(), nil
}

// Network returns the network started by Run, if any.
func (o *Orchestrator) Network() emu.Network {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.network
}

// Shutdown stops every started process, then the network.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	logger.Infof("*** Stopping experiment ***")

	o.mu.Lock()
	network := o.network
	o.network = nil
	o.mu.Unlock()

	errs := []error{o.procs.StopAll()}
	if network != nil {
		errs = append(errs, network.Stop(ctx))
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) fail(ctx context.Context, err error) error {
	logger.Errorf("experiment halted: %v", err)
	if !o.cfg.StopOnFailure {
		return err
	}
	return errors.Join(err, o.Shutdown(context.WithoutCancel(ctx)))
}

// enter moves the run to stage; stages never repeat or go backwards.
func (o *Orchestrator) enter(stage Stage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if stage <= o.current {
		return fmt.Errorf("%w: %s after %s", ErrStageOrder, stage, o.current)
	}
	o.current = stage
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, m *Manifest, run func(context.Context, *Manifest) error) error {
	if err := o.enter(stage); err != nil {
		return err
	}

	logger.Infof("*** %s ***", stage)
	o.emit(stage, StatusRunning, nil)

	err := run(ctx, m)
	switch {
	case errors.Is(err, ErrRoleNotFound):
		logger.Warnf("skipping %s: %v", stage, err)
		o.emit(stage, StatusSkipped, err)
		return nil
	case err != nil:
		o.emit(stage, StatusFailed, err)
		return fmt.Errorf("%s: %w", stage, err)
	}

	o.emit(stage, StatusDone, nil)
	return nil
}

func (o *Orchestrator) emit(stage Stage, status Status, err error) {
	ev := StageEvent{Stage: stage, Status: status, Err: err, At: time.Now()}
	for _, obs := range o.observers {
		obs.Observe(ev)
	}
}

func (o *Orchestrator) networkUp(ctx context.Context, m *Manifest) error {
	network, err := o.engine.Start(ctx, m.TopologyPath)
	if err != nil {
		return fmt.Errorf("%w: start network: %w", ErrLaunchFailed, err)
	}
	o.mu.Lock()
	o.network = network
	o.mu.Unlock()

	// Hosts are polled only while the emulator itself is still healthy
	var up *emu.Process
	if e, ok := network.(emu.Emulated); ok {
		up = e.Emulator()
	}

	return o.forEach(ctx, names(m.Topology.Nodes), func(ctx context.Context, host string) error {
		h, err := o.host(host)
		if err != nil {
			return err
		}
		return o.awaitProbe(ctx, StageNetworkUp, h, up, "true")
	})
}

func (o *Orchestrator) forwardingUp(ctx context.Context, m *Manifest) error {
	return o.daemonsUp(ctx, m, StageForwardingUp, "forwarding", o.cfg.ForwardingCommand, o.cfg.ForwardingProbe, o.cfg.ForwardingSettle)
}

func (o *Orchestrator) routingUp(ctx context.Context, m *Manifest) error {
	return o.daemonsUp(ctx, m, StageRoutingUp, "routing", o.cfg.RoutingCommand, o.cfg.RoutingProbe, o.cfg.RoutingSettle)
}

func (o *Orchestrator) daemonsUp(ctx context.Context, m *Manifest, stage Stage, daemon, command, probe string, settle time.Duration) error {
	err := o.forEach(ctx, o.Network().Hosts(), func(ctx context.Context, host string) error {
		h, err := o.host(host)
		if err != nil {
			return err
		}
		p, err := o.start(ctx, stage, h, command, m.DaemonLogPath(host, daemon))
		if err != nil {
			return err
		}
		if probe == "" {
			return o.awaitProcess(ctx, stage, p)
		}
		return o.awaitProbe(ctx, stage, h, p, probe)
	})
	if err != nil {
		return err
	}
	return wait(ctx, settle)
}

func (o *Orchestrator) producersUp(ctx context.Context, m *Manifest) error {
	return o.applicationsUp(ctx, m, StageProducersUp, topology.RoleProducer, o.cfg.ProducerBinary)
}

func (o *Orchestrator) aggregatorsUp(ctx context.Context, m *Manifest) error {
	return o.applicationsUp(ctx, m, StageAggregatorsUp, topology.RoleAggregator, o.cfg.AggregatorBinary)
}

func (o *Orchestrator) applicationsUp(ctx context.Context, m *Manifest, stage Stage, role topology.Role, binary string) error {
	hosts := m.Hosts(role)
	if len(hosts) == 0 {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}

	return o.forEach(ctx, hosts, func(ctx context.Context, host string) error {
		h, err := o.host(host)
		if err != nil {
			return err
		}
		command := fmt.Sprintf("%s --prefix /%s --config %s", emu.Quote(binary), host, emu.Quote(m.Configs[role]))
		p, err := o.start(ctx, stage, h, command, m.LogPath(host))
		if err != nil {
			return err
		}
		if err := o.awaitProcess(ctx, stage, p); err != nil {
			return err
		}
		return wait(ctx, o.cfg.LaunchSettle)
	})
}

func (o *Orchestrator) advertise(ctx context.Context, m *Manifest) error {
	hosts := append(m.Hosts(topology.RoleProducer), m.Hosts(topology.RoleAggregator)...)
	if len(hosts) == 0 {
		return fmt.Errorf("%w: %s or %s", ErrRoleNotFound, topology.RoleProducer, topology.RoleAggregator)
	}

	return o.forEach(ctx, hosts, func(ctx context.Context, host string) error {
		h, err := o.host(host)
		if err != nil {
			return err
		}
		command := o.cfg.AdvertiseCommand + " /" + host
		out, err := h.Run(ctx, command)
		if err != nil {
			return fmt.Errorf("%w: %q on %s: %w: %s", ErrLaunchFailed, command, host, err, strings.TrimSpace(out))
		}
		l := logger.Host(host)
		l.Info().Msgf("advertised /%s", host)
		return wait(ctx, o.cfg.AdvertiseSettle)
	})
}

func (o *Orchestrator) consumerUp(ctx context.Context, m *Manifest) error {
	consumers := m.Hosts(topology.RoleConsumer)
	if len(consumers) == 0 {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, topology.RoleConsumer)
	}
	if len(consumers) > 1 {
		logger.Warnf("%d consumer hosts, starting only %s", len(consumers), consumers[0])
	}

	host := consumers[0]
	h, err := o.host(host)
	if err != nil {
		return err
	}
	command := fmt.Sprintf("%s --config %s", emu.Quote(o.cfg.ConsumerBinary), emu.Quote(m.Configs[topology.RoleConsumer]))
	p, err := o.start(ctx, StageConsumerUp, h, command, m.LogPath(host))
	if err != nil {
		return err
	}
	return o.awaitProcess(ctx, StageConsumerUp, p)
}

func (o *Orchestrator) host(name string) (emu.Host, error) {
	network := o.Network()
	if network == nil {
		return nil, fmt.Errorf("%w: network is not running", ErrLaunchFailed)
	}
	h, ok := network.Host(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrLaunchFailed, emu.ErrHostNotFound, name)
	}
	return h, nil
}

func (o *Orchestrator) start(ctx context.Context, stage Stage, h emu.Host, command, logPath string) (*emu.Process, error) {
	p, err := h.Start(ctx, command, logPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %w", ErrLaunchFailed, stage, h.Name(), err)
	}
	o.procs.Add(p)
	return p, nil
}

// forEach runs fn for every host, at most MaxParallel at a time, and
// returns once all have finished. The first error stops further launches.
func (o *Orchestrator) forEach(parent context.Context, hosts []string, fn func(context.Context, string) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	sem := make(chan struct{}, o.cfg.MaxParallel)

	for _, host := range hosts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(ctx, host); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return parent.Err()
}

func (o *Orchestrator) warnUnreachable(m *Manifest) {
	consumers := m.Roles.Hosts(topology.RoleConsumer)
	if len(consumers) == 0 || m.Topology == nil {
		return
	}
	targets := append(m.Roles.Hosts(topology.RoleProducer), m.Roles.Hosts(topology.RoleAggregator)...)
	for _, host := range m.Topology.Unreachable(consumers[0], targets) {
		logger.Warnf("%s is not reachable from %s", host, consumers[0])
	}
}

// wait sleeps for d unless ctx is done first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
