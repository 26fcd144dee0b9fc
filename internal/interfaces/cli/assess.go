package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAssessCmd() *cobra.Command {
	var (
		role       string
		contextKVs []string
	)

	cmd := &cobra.Command{
		Use:   "assess <content>",
		Short: "Assess the risk of a single piece of content from the command line",
		Long:  "Runs one risk assessment against the configured model and prints the result as JSON. Nothing is persisted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextInfo, err := parseKVs(contextKVs)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			eng := buildEngine(cfg.Enrichment, nil, log)
			result, err := eng.risk.AssessRisk(cmd.Context(), args[0], role, contextInfo)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&role, "role", "user", "role of the content author (user or assistant)")
	cmd.Flags().StringArrayVar(&contextKVs, "context", nil, "additional context as key=value, repeatable")
	return cmd
}

func parseKVs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context entry %q, expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
