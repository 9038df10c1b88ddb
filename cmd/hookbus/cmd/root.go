package cmd

import (
	"fmt"

	"github.com/GoCodeAlone/hookbus"
	"github.com/GoCodeAlone/hookbus/feeders"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the hookbus CLI
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookbus",
		Short: "hookbus - inspect and run hook dispatcher configurations",
		Long: `hookbus loads dispatcher configuration files (YAML, TOML, or JSON),
validates namespaces, phases, and schedules, and can run the configured
schedules against a dispatcher that logs every fire.`,
		Version: PrintVersion(),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "hookbus.yaml", "Configuration file (.yaml, .yml, .toml, .json)")
	cmd.PersistentFlags().String("env-prefix", "HOOKBUS", "Environment variable prefix applied over the file; empty disables")

	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewRunCommand())

	return cmd
}

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("hookbus v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// configFeeders returns the file feeder for the --config flag followed by the
// environment feeder, if any.
func configFeeders(cmd *cobra.Command) (string, []hookbus.Feeder, error) {
	path, _ := cmd.Flags().GetString("config")
	prefix, _ := cmd.Flags().GetString("env-prefix")

	fileFeeder, err := feeders.ForPath(path)
	if err != nil {
		return "", nil, err
	}
	out := []hookbus.Feeder{fileFeeder}
	if prefix != "" {
		out = append(out, feeders.NewEnvFeeder(prefix))
	}
	return path, out, nil
}
