package inference

import (
	"context"
	"fmt"
	"image"

	"github.com/example/bmi-check/internal/config"
	"github.com/example/bmi-check/internal/imageprocessor"
)

// Runner is the part of Session the model wrappers depend on.
type Runner interface {
	Run(input []float32) ([]float32, error)
	Close()
}

// Embedder turns a face crop into a fixed-length embedding vector.
type Embedder struct {
	runner    Runner
	imageSize int
	dim       int
}

// NewEmbedder loads the embedding network described by cfg. The network takes
// a 1×3×size×size image and produces a 1×dim embedding.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	size := int64(cfg.ImageSize)
	session, err := NewSession(cfg.ModelPath, cfg.InputName, cfg.OutputName,
		[]int64{1, 3, size, size}, []int64{1, int64(cfg.EmbeddingSize)})
	if err != nil {
		return nil, err
	}
	return NewEmbedderWithRunner(session, cfg.ImageSize, cfg.EmbeddingSize), nil
}

// NewEmbedderWithRunner wraps an already loaded runner.
func NewEmbedderWithRunner(runner Runner, imageSize, dim int) *Embedder {
	return &Embedder{runner: runner, imageSize: imageSize, dim: dim}
}

// Dim is the embedding length.
func (e *Embedder) Dim() int { return e.dim }

// Embed returns the embedding of face.
func (e *Embedder) Embed(ctx context.Context, face image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := e.runner.Run(imageprocessor.Preprocess(face, e.imageSize))
	if err != nil {
		return nil, err
	}
	if len(out) != e.dim {
		return nil, fmt.Errorf("embedding has %d values, expected %d", len(out), e.dim)
	}
	return out, nil
}

// Close releases the underlying session.
func (e *Embedder) Close() { e.runner.Close() }
