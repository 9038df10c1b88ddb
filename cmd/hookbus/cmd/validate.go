package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/GoCodeAlone/hookbus"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Load the configuration file, apply the environment overrides, and
check every namespace id, phase list, and schedule.

Examples:
  hookbus validate --config hooks.yaml
  hookbus validate -c hooks.toml --env-prefix APP`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, fs, err := configFeeders(cmd)
	if err != nil {
		return err
	}
	cfg, err := hookbus.LoadConfig(fs...)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", path, err)
	}

	// Applying to a scratch dispatcher resolves default phases the same way run does.
	d, err := hookbus.New(hookbus.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", path, err)
	}

	printSummary(cmd.OutOrStdout(), path, cfg, d)
	return nil
}

func printSummary(w io.Writer, path string, cfg *hookbus.Config, d *hookbus.Dispatcher) {
	fmt.Fprintf(w, "%s is valid\n", path)
	fmt.Fprintf(w, "Namespaces (%d):\n", d.Registry().Len())
	for _, id := range d.Registry().IDs() {
		ns, err := d.Registry().Lookup(id)
		if err != nil {
			continue
		}
		phases := make([]string, 0, len(ns.Phases().Names()))
		for _, p := range ns.Phases().Names() {
			if p == ns.DefaultPhase() {
				p += "*"
			}
			phases = append(phases, p)
		}
		fmt.Fprintf(w, "  %s: %s\n", id, strings.Join(phases, " -> "))
	}
	fmt.Fprintf(w, "Schedules (%d):\n", len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		fmt.Fprintf(w, "  %s: %s fires %s\n", s.Name, s.Spec, s.Pattern)
	}
}
