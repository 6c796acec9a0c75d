package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/interfaces/cli/migrate"
	"github.com/warden-sh/warden/internal/interfaces/cli/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - self-hostable license issuance and validation service",
		Long:  `Warden issues hardware-bound license keys and validates them online and offline, with lifecycle management, binding audit history, and maintenance sweeps.`,
	}

	rootCmd.AddCommand(
		serve.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
