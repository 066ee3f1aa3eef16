package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the bmi command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bmi",
		Short: "Estimate body mass index from face photographs",
		Long: `bmi estimates body mass index from a front and a side photograph of a face.

It serves a web form and a JSON API, and offers batch feature extraction and
single-pair prediction from the command line.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $BMI_CONFIG)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newExtractCmd(&configPath))
	cmd.AddCommand(newPredictCmd(&configPath))

	return cmd
}
