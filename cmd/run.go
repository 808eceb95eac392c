package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/orchestrator"
	"github.com/adamgarcia4/goLearning/ndnagg/transport"
)

type runOptions struct {
	workspaceOptions
	statusAddr       string
	noInteractive    bool
	parallel         int
	readinessTimeout time.Duration
	readyPattern     string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <label>",
	Short: "Run an experiment on the emulated network",
	Long: `Bring the experiment of a workspace up, stage by stage: network,
forwarding daemons, routing daemons, producers, aggregators, route
advertisements, consumer. Then open an operator session; quitting it stops
every process and the network.

Stage progress is published on a gRPC health service (see "ndnagg status")
and recorded in <logs>/<label>/run.json.

Examples:
  ndnagg run bw100-loss1
  ndnagg run bw100-loss1 -a rubic --parallel 4 --no-interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addWorkspaceFlags(runCmd, &runOpts.workspaceOptions)
	runCmd.Flags().StringVar(&runOpts.statusAddr, "status-addr", transport.DefaultStatusAddr, "Address of the status service, empty to disable")
	runCmd.Flags().BoolVar(&runOpts.noInteractive, "no-interactive", false, "Wait for a signal instead of opening the operator session")
	runCmd.Flags().IntVar(&runOpts.parallel, "parallel", 1, "Hosts launched concurrently within a stage")
	runCmd.Flags().DurationVar(&runOpts.readinessTimeout, "readiness-timeout", orchestrator.DefaultReadinessTimeout, "How long a process may take to become ready")
	runCmd.Flags().StringVar(&runOpts.readyPattern, "ready-pattern", "", "Regular expression an application prints once ready")
}

// loadConfig applies defaults, then the environment, then changed flags.
func loadConfig(cmd *cobra.Command, opts runOptions) (*orchestrator.Config, error) {
	cfg := orchestrator.DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("parallel") {
		cfg.MaxParallel = opts.parallel
	}
	if flags.Changed("readiness-timeout") {
		cfg.ReadinessTimeout = opts.readinessTimeout
	}
	if flags.Changed("ready-pattern") {
		cfg.ReadyPattern = opts.readyPattern
	}
	return cfg, cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd, runOpts)
	if err != nil {
		return err
	}
	m, _, err := openManifest(args[0], runOpts.workspaceOptions)
	if err != nil {
		return err
	}

	recorder := orchestrator.NewRecorder(m)
	opts := []orchestrator.Option{orchestrator.WithObserver(recorder)}

	if runOpts.statusAddr != "" {
		status, err := transport.NewStatusServer(runOpts.statusAddr)
		if err != nil {
			return err
		}
		if err := status.Start(); err != nil {
			return err
		}
		defer status.Stop()
		opts = append(opts, orchestrator.WithObserver(status))
	}

	o, err := orchestrator.New(cfg, cfg.Engine(m.LogDir), opts...)
	if err != nil {
		return err
	}

	// Wait for interrupt signal for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	network, err := o.Run(ctx, m)
	if err != nil {
		return err
	}
	logger.Infof("Experiment %s is up, run metadata in %s", m.Label, recorder.Path())

	defer func() {
		if stopErr := o.Shutdown(context.WithoutCancel(ctx)); stopErr != nil {
			logger.Errorf("Error during shutdown: %v", stopErr)
			err = errors.Join(err, stopErr)
		}
	}()

	if runOpts.noInteractive {
		logger.Info("Press Ctrl+C to stop the experiment")
		<-ctx.Done()
		logger.Info("Shutting down...")
		return nil
	}
	return runSession(ctx, o, network, m)
}
