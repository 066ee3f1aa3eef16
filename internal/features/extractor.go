// Package features builds regressor input rows from front and side photographs.
package features

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/imageprocessor"
)

// Embedder turns a face crop into an embedding vector of length Dim.
type Embedder interface {
	Embed(ctx context.Context, face image.Image) ([]float32, error)
	Dim() int
}

// Extractor pairs front/side images and embeds them.
type Extractor struct {
	detector imageprocessor.FaceDetector
	embedder Embedder
	logger   *zap.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(detector imageprocessor.FaceDetector, embedder Embedder, logger *zap.Logger) *Extractor {
	return &Extractor{
		detector: detector,
		embedder: embedder,
		logger:   logger.Named("feature_extractor"),
	}
}

// LoadAndEmbed detects the face in the image at path and embeds it. It returns
// nil when no face is found or anything fails; the reason is logged.
func (e *Extractor) LoadAndEmbed(ctx context.Context, path string) []float32 {
	face, err := e.detector.DetectFace(ctx, path)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrNoFaceDetected) {
			e.logger.Warn("no face detected", zap.String("path", path))
		} else {
			e.logger.Error("failed to process image", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	vec, err := e.embedder.Embed(ctx, face)
	if err != nil {
		e.logger.Error("failed to embed face", zap.String("path", path), zap.Error(err))
		return nil
	}
	return vec
}

// Extract builds the feature table for baseDir, which holds a front and a side
// directory with matching filenames. maxPersons limits the number of front
// images considered when positive. Pairs where either image yields no
// embedding are dropped.
func (e *Extractor) Extract(ctx context.Context, baseDir string, maxPersons int) (*Table, error) {
	frontDir := filepath.Join(baseDir, "front")
	sideDir := filepath.Join(baseDir, "side")

	entries, err := os.ReadDir(frontDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", frontDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if maxPersons > 0 && len(names) > maxPersons {
		names = names[:maxPersons]
	}

	table := &Table{Columns: ColumnNames(e.embedder.Dim())}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		front := e.LoadAndEmbed(ctx, filepath.Join(frontDir, name))
		side := e.LoadAndEmbed(ctx, filepath.Join(sideDir, name))
		if front == nil || side == nil {
			e.logger.Info("dropping incomplete pair", zap.String("id", name),
				zap.Bool("front_ok", front != nil), zap.Bool("side_ok", side != nil))
			continue
		}

		values := make([]float32, 0, len(front)+len(side))
		values = append(values, front...)
		values = append(values, side...)
		table.Rows = append(table.Rows, Row{ID: name, Values: values})
	}

	e.logger.Debug("feature extraction finished", zap.String("base_dir", baseDir),
		zap.Int("candidates", len(names)), zap.Int("rows", len(table.Rows)))
	return table, nil
}
