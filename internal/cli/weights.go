package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// createWeightsCommand creates the 'weights' command
func (c *CLI) createWeightsCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Print the effective scoring weights as YAML",
		Long: `Print the scoring weights after applying LIFE_MANAGER_WEIGHTS_FILE. The
output can be edited and used as a weights file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if offline {
				cfg, err := c.loadConfig()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				return writeWeights(cmd, cfg.Recommendation.Weights)
			}
			return c.withService(cmd, func(ctx context.Context, svc Recommender) error {
				return writeWeights(cmd, svc.Weights())
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Read weights from configuration without connecting to the database")

	return cmd
}

func writeWeights(cmd *cobra.Command, weights tasks.Weights) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(weights); err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	return enc.Close()
}
