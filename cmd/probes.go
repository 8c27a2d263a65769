package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askervin/gdbsearch/engine"
)

// probesCmd supplements the spec's otherwise CLI-invisible §4.1 probe
// registry with a way to list what is actually registered.
var probesCmd = &cobra.Command{
	Use:           "probes",
	Short:         "list the registered metric probes",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := engine.NewProbeRegistry()
		for _, name := range registry.Names() {
			marker := " "
			if name == engine.DefaultProbeName {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
		}
		return nil
	},
}
