package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vhu/portal/cmd/portalctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Operator tools for the portal backend",
	}

	rootCmd.AddCommand(cmd.TokenCmd())
	rootCmd.AddCommand(cmd.SweepCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
