package inference

import (
	"context"
	"errors"

	"github.com/example/bmi-check/internal/config"
)

// Regressor applies the pretrained BMI regressor to one feature row.
type Regressor struct {
	runner Runner
}

// NewRegressor loads the regressor described by cfg for rows of width values.
func NewRegressor(cfg config.ModelConfig, width int) (*Regressor, error) {
	session, err := NewSession(cfg.ModelPath, cfg.InputName, cfg.OutputName,
		[]int64{1, int64(width)}, []int64{1, 1})
	if err != nil {
		return nil, err
	}
	return NewRegressorWithRunner(session), nil
}

// NewRegressorWithRunner wraps an already loaded runner.
func NewRegressorWithRunner(runner Runner) *Regressor {
	return &Regressor{runner: runner}
}

// Predict returns the model's estimate for row.
func (r *Regressor) Predict(ctx context.Context, row []float32) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := r.runner.Run(row)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, errors.New("regressor produced no output")
	}
	return out[0], nil
}

// Close releases the underlying session.
func (r *Regressor) Close() { r.runner.Close() }
