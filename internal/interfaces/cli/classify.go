package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:   "classify <user-message>",
		Short: "Classify a single message from the command line",
		Long:  "Runs one classification against the configured model and prints the result as JSON. Nothing is persisted; useful for prompt tuning and smoke tests.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			eng := buildEngine(cfg.Enrichment, nil, log)
			result, err := eng.classifier.Classify(cmd.Context(), args[0], response)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&response, "response", "", "assistant response to include as classification context")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
