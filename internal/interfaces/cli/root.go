// Package cli implements the promptdeck command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "promptdeck",
	Short:         "PromptDeck enrichment service",
	Long:          "PromptDeck turns unstructured chat and message text into structured classification and risk judgments backed by a language model.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newClassifyCmd(),
		newAssessCmd(),
		newMigrateCmd(),
	)
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
