package cmd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/config"
	"github.com/example/bmi-check/internal/imageprocessor"
	"github.com/example/bmi-check/internal/inference"
	"github.com/example/bmi-check/internal/logging"
)

// models holds the artifacts loaded once per process.
type models struct {
	detector  *imageprocessor.CascadeDetector
	embedder  *inference.Embedder
	regressor *inference.Regressor
}

func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadModels initializes the ONNX runtime and loads the detector and the
// embedder, plus the regressor when withRegressor is set.
func loadModels(cfg *config.Config, logger *zap.Logger, withRegressor bool) (*models, error) {
	if err := inference.InitEnvironment(cfg.OnnxLibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	m := &models{}
	var err error
	m.detector, err = imageprocessor.NewCascadeDetector(cfg.CascadePath, cfg.FaceMargin, logger)
	if err != nil {
		m.Close()
		return nil, err
	}
	m.embedder, err = inference.NewEmbedder(cfg.Embedder)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to load embedder %s: %w", cfg.Embedder.ModelPath, err)
	}
	if withRegressor {
		m.regressor, err = inference.NewRegressor(cfg.Regressor, 2*m.embedder.Dim())
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to load regressor %s: %w", cfg.Regressor.ModelPath, err)
		}
	}

	logger.Info("models loaded",
		zap.String("embedder", cfg.Embedder.ModelPath),
		zap.String("regressor", cfg.Regressor.ModelPath),
		zap.String("cascade", cfg.CascadePath),
	)
	return m, nil
}

func (m *models) Close() error {
	var errs []error
	if m.regressor != nil {
		m.regressor.Close()
	}
	if m.embedder != nil {
		m.embedder.Close()
	}
	if m.detector != nil {
		errs = append(errs, m.detector.Close())
	}
	errs = append(errs, inference.DestroyEnvironment())
	return errors.Join(errs...)
}
