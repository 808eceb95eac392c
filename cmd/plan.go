package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
	"github.com/adamgarcia4/goLearning/ndnagg/orchestrator"
	"github.com/adamgarcia4/goLearning/ndnagg/sizing"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
	"github.com/adamgarcia4/goLearning/ndnagg/workspace"
)

type workspaceOptions struct {
	variant bundle.Variant
	root    string
	logs    string
}

var planOpts workspaceOptions

var planCmd = &cobra.Command{
	Use:   "plan <label>",
	Short: "Show what run would launch, without launching anything",
	Long: `Print the experiment manifest of a workspace: hosts, roles, hop
distance from the consumer, configuration documents and log files.

Examples:
  ndnagg plan bw100-loss1 -a rubic`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addWorkspaceFlags(planCmd, &planOpts)
}

func addWorkspaceFlags(cmd *cobra.Command, opts *workspaceOptions) {
	addVariantFlag(cmd.Flags(), &opts.variant)
	cmd.Flags().StringVar(&opts.root, "root", bundle.DefaultRoot, "Directory holding the workspaces")
	cmd.Flags().StringVar(&opts.logs, "logs", orchestrator.DefaultLogRoot, "Directory receiving the run logs")
}

func openManifest(label string, opts workspaceOptions) (*orchestrator.Manifest, *workspace.Workspace, error) {
	ws, err := workspace.New(opts.root).Open(label)
	if err != nil {
		return nil, nil, err
	}
	m, err := orchestrator.BuildManifest(ws, opts.variant, opts.logs)
	if err != nil {
		return nil, nil, err
	}
	return m, ws, nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	m, ws, err := openManifest(args[0], planOpts)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), m, ws)
	return nil
}

func printPlan(w io.Writer, m *orchestrator.Manifest, ws *workspace.Workspace) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Experiment %s (%s)", m.Label, m.Variant)))

	if plan, err := sizing.NewChunkPlan(ws.Args.ChunkBytes, ws.Args.TotalBytes); err == nil {
		fmt.Fprintf(w, "chunks:   %s\n", plan)
	}
	fmt.Fprintf(w, "topology: %s\n", m.TopologyPath)
	fmt.Fprintf(w, "logs:     %s\n\n", m.LogDir)

	var hops map[topology.NodeID]int
	consumers := m.Roles.Hosts(topology.RoleConsumer)
	if len(consumers) > 0 {
		hops = m.Topology.Hops(consumers[0])
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("HOST", "ROLE", "HOPS", "CONFIG", "LOG")
	for _, id := range m.Roles.All() {
		role := m.Roles[id]
		distance := "-"
		if d, ok := hops[id]; ok {
			distance = strconv.Itoa(d)
		}
		config, log := "", ""
		if path, ok := m.Configs[role]; ok {
			config = path
			log = m.LogPath(string(id))
		}
		t.Row(string(id), role.String(), distance, config, log)
	}
	fmt.Fprintln(w, t.Render())

	if len(consumers) > 1 {
		fmt.Fprintf(w, "%d consumers, only %s will be started\n", len(consumers), consumers[0])
	}
	if len(consumers) > 0 {
		targets := append(m.Roles.Hosts(topology.RoleProducer), m.Roles.Hosts(topology.RoleAggregator)...)
		for _, id := range m.Topology.Unreachable(consumers[0], targets) {
			fmt.Fprintf(w, "warning: %s is not reachable from %s\n", id, consumers[0])
		}
	}
}
