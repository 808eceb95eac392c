package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
)

const defaultEnvFile = ".env"

var (
	logLevel string
	noColor  bool
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "ndnagg",
	Short: "Configure and run NDN aggregation experiments",
	Long: `ndnagg turns a link table into an experiment workspace (topology,
chunk plan and per-role configuration documents) and brings the experiment up
on an emulated network: forwarding and routing daemons on every host, then
producers, aggregators and the consumer.

Settings can be overridden with NDNAGG_* environment variables, also read
from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "File with NDNAGG_* overrides")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}
	return logger.Init(logger.Options{Level: logLevel, Console: true, NoColor: noColor})
}

// loadEnvFile reads path into the environment without overriding variables
// that are already set. The default file is optional.
func loadEnvFile(path string, required bool) error {
	err := godotenv.Load(path)
	if err == nil || (!required && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}
