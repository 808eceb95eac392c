package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adamgarcia4/goLearning/ndnagg/transport"
)

var (
	statusAddr    string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stage progress of a running experiment",
	Long: `Query the status service of a running "ndnagg run" and print the
overall status and the status of every stage.

Examples:
  ndnagg status
  ndnagg status --addr 127.0.0.1:50061`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusAddr, "addr", transport.DefaultStatusAddr, "Address of the status service")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 3*time.Second, "Timeout of the query")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	report, err := transport.QueryStatus(ctx, statusAddr)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("STAGE", "STATUS")
	for _, s := range report {
		name := strings.TrimPrefix(s.Service, transport.StageServicePrefix)
		if s.Service == transport.OverallService {
			name = "experiment"
		}
		t.Row(name, s.Status)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
