package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/bmi"
	"github.com/example/bmi-check/internal/features"
	"github.com/example/bmi-check/internal/logging"
	"github.com/example/bmi-check/internal/uploads"
)

// ErrNoFeatures is returned when no face could be embedded in the front or side image.
var ErrNoFeatures = errors.New("no face could be detected in both the front and side images")

// UploadArea is the single-slot image store the pipeline reads from.
type UploadArea interface {
	Acquire(ctx context.Context) (func(), error)
	Store(front, side uploads.File) error
	BaseDir() string
}

// FeatureExtractor builds the feature table for an upload area.
type FeatureExtractor interface {
	Extract(ctx context.Context, baseDir string, maxPersons int) (*features.Table, error)
}

// Predictor applies the regressor to one feature row.
type Predictor interface {
	Predict(ctx context.Context, row []float32) (float32, error)
}

// Estimate is the outcome of one pipeline run.
type Estimate struct {
	BMI    float64
	Status bmi.Status
}

// Pipeline runs upload → feature extraction → regression for one image pair.
type Pipeline struct {
	area      UploadArea
	extractor FeatureExtractor
	predictor Predictor
	logger    *zap.Logger
}

// NewPipeline wires the pipeline stages.
func NewPipeline(area UploadArea, extractor FeatureExtractor, predictor Predictor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		area:      area,
		extractor: extractor,
		predictor: predictor,
		logger:    logger.Named("pipeline"),
	}
}

// Run stores the pair in the upload area and estimates BMI from it. The area
// is held for the whole run so a concurrent request cannot swap the images
// between storing and reading them.
func (p *Pipeline) Run(ctx context.Context, requestID string, front, side uploads.File) (*Estimate, error) {
	opLogger := logging.WithOperation(p.logger, "pipeline.run", requestID)

	release, err := p.area.Acquire(ctx)
	if err != nil {
		return nil, logging.NewOperationError("uploads.acquire", requestID, err)
	}
	defer release()

	if err := p.area.Store(front, side); err != nil {
		return nil, logging.NewOperationError("uploads.store", requestID, err)
	}

	table, err := p.extractor.Extract(ctx, p.area.BaseDir(), 1)
	if err != nil {
		return nil, logging.NewOperationError("features.extract", requestID, err)
	}
	row, ok := table.First()
	if !ok {
		opLogger.Warn("no usable feature row")
		return nil, logging.NewOperationError("features.extract", requestID, ErrNoFeatures)
	}

	raw, err := p.predictor.Predict(ctx, row.Values)
	if err != nil {
		return nil, logging.NewOperationError("inference.predict", requestID, err)
	}

	value := bmi.Round(float64(raw))
	status := bmi.Categorize(value)
	opLogger.Info("bmi estimated", zap.Float64("bmi", value), zap.String("category", status.Label))
	return &Estimate{BMI: value, Status: status}, nil
}
