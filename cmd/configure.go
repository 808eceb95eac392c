package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/sizing"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
	"github.com/adamgarcia4/goLearning/ndnagg/workspace"
)

type configureOptions struct {
	label       string
	chunkSize   string
	totalSize   string
	root        string
	force       bool
	interactive bool
}

var configureOpts configureOptions

var configureCmd = &cobra.Command{
	Use:   "configure <structure.csv>",
	Short: "Create an experiment workspace from a link table",
	Long: `Create configure/<label>/ with the rendered topology (web.conf), the
argument snapshot (args.yaml), a copy of the link table, and the role
configuration documents of every algorithm variant.

An existing workspace is only replaced with --force, or after confirmation
with --interactive.

Examples:
  # Default chunk plan (1MB chunks, 10MB total), label from the current time
  ndnagg configure structure.csv

  ndnagg configure structure.csv -m bw100-loss1 --chunk-size 2MB --total-size 100MB`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().StringVarP(&configureOpts.label, "message", "m", "", "Label of the workspace, e.g. bw100-loss1 (default: current time)")
	configureCmd.Flags().StringVar(&configureOpts.chunkSize, "chunk-size", workspace.DefaultChunkSize, "Size of a single chunk")
	configureCmd.Flags().StringVar(&configureOpts.totalSize, "total-size", workspace.DefaultTotalSize, "Size of the whole file")
	configureCmd.Flags().StringVar(&configureOpts.root, "root", bundle.DefaultRoot, "Directory holding the workspaces")
	configureCmd.Flags().BoolVarP(&configureOpts.force, "force", "f", false, "Replace an existing workspace without asking")
	configureCmd.Flags().BoolVarP(&configureOpts.interactive, "interactive", "i", false, "Ask before replacing an existing workspace")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	err := configure(cmd, args[0], configureOpts, cmd.InOrStdin())
	if errors.Is(err, workspace.ErrWorkspaceCollision) {
		fmt.Fprintln(cmd.OutOrStdout(), "Execution terminated")
	}
	return err
}

func configure(cmd *cobra.Command, structure string, opts configureOptions, in io.Reader) error {
	out := cmd.OutOrStdout()

	a := workspace.Args{
		Structure: structure,
		Label:     opts.label,
		ChunkSize: opts.chunkSize,
		TotalSize: opts.totalSize,
	}
	if err := a.Resolve(time.Now()); err != nil {
		return err
	}
	printArgs(out, a)

	if _, err := os.Stat(structure); err != nil {
		return fmt.Errorf("%w: %s", workspace.ErrMissingStructureFile, structure)
	}
	plan, err := sizing.PlanChunks(a.ChunkSize, a.TotalSize)
	if err != nil {
		return err
	}
	topo, err := topology.ParseFile(structure)
	if err != nil {
		return err
	}
	if err := topo.Validate(); err != nil {
		return err
	}

	req := workspace.Request{
		Args:     a,
		Topology: topo,
		Plan:     plan,
		Force:    opts.force,
	}
	if opts.interactive {
		req.Confirm = workspace.PromptConfirmer{In: in, Out: out}
	}

	ws, err := workspace.New(opts.root).Create(cmd.Context(), req)
	if err != nil {
		return err
	}

	logger.Infof("Chunk plan: %s", plan)
	roles := topology.AssignRoles(topo.Nodes)
	for _, role := range []topology.Role{topology.RoleConsumer, topology.RoleAggregator, topology.RoleProducer} {
		logger.Infof("%ss: %v", role, roles.Hosts(role))
	}
	fmt.Fprintf(out, "Workspace written to %s\n", ws.Dir)
	return nil
}

func printArgs(w io.Writer, a workspace.Args) {
	fmt.Fprintln(w, "------ Arguments ------")
	fmt.Fprintf(w, "structure: %s\n", a.Structure)
	fmt.Fprintf(w, "message: %s\n", a.Label)
	fmt.Fprintf(w, "chunk_size: %s, total_size: %s\n\n", a.ChunkSize, a.TotalSize)
}
