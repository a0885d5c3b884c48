package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "difffuzz",
	Short: "Differential, coverage-guided fuzzer for URI-parsing targets",
	Long: `difffuzz generates and mutates byte-string inputs, runs them through several
URI-parsing targets side by side, and reports any input on which the targets
disagree — on exit status or, optionally, on stdout. Divergent inputs are
minimized and bucketed by bugprint, the deterministic fingerprint of how the
targets' behavior diverged.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
