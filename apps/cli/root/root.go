package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the TAIPPA admin CLI. Subcommands (auth, bootstrap, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "taippa",
	Short:         "TAIPPA admin CLI",
	Long:          "Administrative utilities for TAIPPA (dev tokens, schema bootstrap, tenants, brands and directory imports).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
