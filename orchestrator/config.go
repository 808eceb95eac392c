package orchestrator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/adamgarcia4/goLearning/ndnagg/emu"
)

// EnvPrefix prefixes every environment override, e.g. NDNAGG_MAX_PARALLEL.
const EnvPrefix = "NDNAGG"

// Default configuration constants
const (
	DefaultProducerBinary   = "exec/putapps/producer"
	DefaultAggregatorBinary = "exec/aggapps/aggregator"
	DefaultConsumerBinary   = "exec/catapps/consumer"

	DefaultForwardingCommand = "nfd"
	DefaultForwardingProbe   = "nfdc status"
	DefaultRoutingCommand    = "nlsr"
	DefaultRoutingProbe      = "nlsrc status"
	DefaultAdvertiseCommand  = "nlsrc advertise"

	DefaultRoutingSettle    = 10 * time.Second
	DefaultLaunchSettle     = 5 * time.Second
	DefaultAdvertiseSettle  = 2 * time.Second
	DefaultReadinessTimeout = 30 * time.Second
	DefaultProbeInterval    = 250 * time.Millisecond

	DefaultLogRoot = "logs"
)

// Config holds the launch commands and timings of an experiment run
type Config struct {
	// Application binaries, resolved to absolute paths by Validate
	ProducerBinary   string `split_words:"true"`
	AggregatorBinary string `split_words:"true"`
	ConsumerBinary   string `split_words:"true"`

	// Daemons started on every host
	ForwardingCommand string        `split_words:"true"`
	ForwardingProbe   string        `split_words:"true"`
	ForwardingSettle  time.Duration `split_words:"true"`
	RoutingCommand    string        `split_words:"true"`
	RoutingProbe      string        `split_words:"true"`
	RoutingSettle     time.Duration `split_words:"true"`

	// AdvertiseCommand is followed by the prefix to announce
	AdvertiseCommand string        `split_words:"true"`
	AdvertiseSettle  time.Duration `split_words:"true"`
	LaunchSettle     time.Duration `split_words:"true"`

	// ReadyPattern, when set, must appear in an application's log before
	// it counts as ready
	ReadyPattern     string        `split_words:"true"`
	ReadinessTimeout time.Duration `split_words:"true"`
	ProbeInterval    time.Duration `split_words:"true"`

	MaxParallel   int  `split_words:"true"`
	StopOnFailure bool `split_words:"true"`

	// Emulation templates, see emu.ShellEngine
	UpCommand      string   `split_words:"true"`
	DownCommand    string   `split_words:"true"`
	CleanupCommand string   `split_words:"true"`
	ExecTemplate   string   `split_words:"true"`
	Tools          []string `split_words:"true"`
}

// DefaultConfig returns a config matching the reference experiment setup
func DefaultConfig() *Config {
	return &Config{
		ProducerBinary:    DefaultProducerBinary,
		AggregatorBinary:  DefaultAggregatorBinary,
		ConsumerBinary:    DefaultConsumerBinary,
		ForwardingCommand: DefaultForwardingCommand,
		ForwardingProbe:   DefaultForwardingProbe,
		RoutingCommand:    DefaultRoutingCommand,
		RoutingProbe:      DefaultRoutingProbe,
		RoutingSettle:     DefaultRoutingSettle,
		AdvertiseCommand:  DefaultAdvertiseCommand,
		AdvertiseSettle:   DefaultAdvertiseSettle,
		LaunchSettle:      DefaultLaunchSettle,
		ReadinessTimeout:  DefaultReadinessTimeout,
		ProbeInterval:     DefaultProbeInterval,
		MaxParallel:       1,
		StopOnFailure:     true,
		CleanupCommand:    emu.DefaultCleanupCommand,
		ExecTemplate:      emu.DefaultExecTemplate,
		Tools:             []string{"ip", DefaultForwardingCommand, DefaultRoutingCommand},
	}
}

// LoadEnv overrides fields from NDNAGG_* environment variables. Unset
// variables keep their current values.
func (c *Config) LoadEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	return nil
}

// Validate checks the config and makes the binary paths absolute
func (c *Config) Validate() error {
	for _, bin := range []*string{&c.ProducerBinary, &c.AggregatorBinary, &c.ConsumerBinary} {
		if *bin == "" {
			return ErrBinaryRequired
		}
		abs, err := filepath.Abs(*bin)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", *bin, err)
		}
		*bin = abs
	}
	if c.ForwardingCommand == "" || c.RoutingCommand == "" || c.AdvertiseCommand == "" {
		return ErrCommandRequired
	}
	if c.MaxParallel < 1 {
		return ErrInvalidParallelism
	}
	if c.ReadinessTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ProbeInterval <= 0 {
		return ErrInvalidProbeInterval
	}
	for _, d := range []time.Duration{c.ForwardingSettle, c.RoutingSettle, c.AdvertiseSettle, c.LaunchSettle} {
		if d < 0 {
			return ErrNegativeSettle
		}
	}
	if c.ReadyPattern != "" {
		if _, err := regexp.Compile(c.ReadyPattern); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidReadyPattern, err)
		}
	}
	return nil
}

// Engine builds the shell emulation backend described by the config
func (c *Config) Engine(logDir string) *emu.ShellEngine {
	e := &emu.ShellEngine{
		UpCommand:      c.UpCommand,
		DownCommand:    c.DownCommand,
		CleanupCommand: c.CleanupCommand,
		ExecTemplate:   c.ExecTemplate,
		Tools:          c.Tools,
	}
	if logDir != "" {
		e.LogPath = filepath.Join(logDir, "emu.log")
	}
	return e
}
