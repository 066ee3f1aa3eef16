package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/features"
)

func newExtractCmd(configPath *string) *cobra.Command {
	var (
		baseDir    string
		maxPersons int
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build the feature table for a directory of front and side images",
		Long: `Extract embeds every front/side image pair under --base and writes one row
per person to a parquet file. Pairs are matched by filename across the front
and side directories; pairs where either face cannot be found are dropped.`,
		Example: `  bmi extract --base data/train --max 500 --out features.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			m, err := loadModels(cfg, logger, false)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					logger.Warn("failed to release models", zap.Error(err))
				}
			}()

			extractor := features.NewExtractor(m.detector, m.embedder, logger)
			table, err := extractor.Extract(cmd.Context(), baseDir, maxPersons)
			if err != nil {
				return err
			}
			if err := table.WriteParquetFile(outPath); err != nil {
				return err
			}

			logger.Info("feature table written", zap.String("path", outPath), zap.Int("rows", table.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", table.Len(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base", "", "Directory containing front/ and side/ image directories")
	cmd.Flags().IntVar(&maxPersons, "max", 0, "Maximum number of front images to process (0 for all)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "features.parquet", "Parquet file to write")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}
