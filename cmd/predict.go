package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/features"
	"github.com/example/bmi-check/internal/uploads"
	"github.com/example/bmi-check/internal/usecase"
)

func newPredictCmd(configPath *string) *cobra.Command {
	var frontPath, sidePath string

	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Estimate BMI for one front and side photograph",
		Example: `  bmi predict --front me_front.jpg --side me_side.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			front, err := readUpload(frontPath)
			if err != nil {
				return err
			}
			side, err := readUpload(sidePath)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			m, err := loadModels(cfg, logger, true)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					logger.Warn("failed to release models", zap.Error(err))
				}
			}()

			workDir, err := os.MkdirTemp("", "bmi-predict-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workDir)

			area, err := uploads.NewArea(workDir, logger)
			if err != nil {
				return err
			}
			pipeline := usecase.NewPipeline(area, features.NewExtractor(m.detector, m.embedder, logger), m.regressor, logger)

			estimate, err := pipeline.Run(cmd.Context(), uuid.NewString(), front, side)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "BMI: %.2f (%s)\n", estimate.BMI, estimate.Status.Label)
			return nil
		},
	}

	cmd.Flags().StringVar(&frontPath, "front", "", "Front view image (jpg, jpeg or png)")
	cmd.Flags().StringVar(&sidePath, "side", "", "Side view image (jpg, jpeg or png)")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("side")

	return cmd
}

func readUpload(path string) (uploads.File, error) {
	if err := uploads.ValidateExtension(path); err != nil {
		return uploads.File{}, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return uploads.File{}, err
	}
	return uploads.File{Name: filepath.Base(path), Data: data}, nil
}
