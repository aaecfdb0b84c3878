package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "agent",
		Short:   "Omnirevenue agent - payment webhooks, fulfilment, and content automation",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(briefingCmd())
	rootCmd.AddCommand(leadIntakeCmd())
	rootCmd.AddCommand(fulfilCmd())
	rootCmd.AddCommand(kpiCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
