// Package main provides the entry point for the acuckoobench CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "acuckoobench",
		Short: "Adaptive Cuckoo Filter Pair benchmark driver",
		Long: `acuckoobench drives an adaptive cuckoo filter pair through the
rehash-on-lookup convergence protocol against a generated key set and
reports false-positive convergence, final shape, and rehash activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a .acuckoobench.yaml config file")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, "acuckoobench 0.1.0")
		},
	}
}
