package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-tracker/internal/cloudapp"
	"github.com/i474232898/weather-tracker/internal/config"
)

func newDescriptorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "descriptor",
		Short: "Print the app descriptor JSON served on GET /apps/weather",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cloudapp.NewDescriptor(cfg.PublicURL))
		},
	}
}
