// Package main provides the entry point for the changefang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/changefang/cmd/changefang/commands"
	"github.com/Sumatoshi-tech/changefang/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "changefang",
		Short: "Changefang - Bayesian changepoint estimation for count series",
		Long: `Changefang fits multiple-changepoint Poisson models to monthly count
panels by Gibbs sampling and compares candidate changepoint counts by
marginal likelihood.

Commands:
  fit       Fit changepoint models to series from a count panel
  simulate  Generate a synthetic count panel with known changepoints`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewFitCommand())
	rootCmd.AddCommand(commands.NewSimulateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "changefang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
