package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/bmi-check/internal/bmi"
	"github.com/example/bmi-check/internal/logging"
	"github.com/example/bmi-check/internal/repository"
	"github.com/example/bmi-check/internal/retry"
	"github.com/example/bmi-check/internal/uploads"
)

const (
	processingMarker = "processing"
	failedMarker     = "failed"
	processingTTL    = time.Minute
	resultTTL        = 5 * time.Minute
)

var (
	// ErrNotFound is returned when a prediction does not exist for the caller.
	ErrNotFound = errors.New("prediction not found")
	// ErrPending is returned for a prediction that is still being computed.
	ErrPending = errors.New("prediction still processing")
	// ErrFailed is returned for a recent prediction whose pipeline run failed.
	ErrFailed = errors.New("prediction failed")
)

// PredictionRepository defines the persistence operations needed by the use case.
type PredictionRepository interface {
	SaveLog(ctx context.Context, log *repository.PredictionLog) error
	FindByRequestIDAndUser(ctx context.Context, requestID, userID string) (*repository.PredictionLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// Prediction is a BMI estimate as returned to callers.
type Prediction struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id,omitempty"`
	BMI        float64   `json:"bmi"`
	Category   string    `json:"category"`
	ColorClass string    `json:"color_class"`
	CreatedAt  time.Time `json:"created_at"`
}

// PredictionUseCase runs the pipeline and records its results.
type PredictionUseCase struct {
	pipeline *Pipeline
	repo     PredictionRepository
	cache    Cache
	logger   *zap.Logger
	policy   retry.Policy
	now      func() time.Time
}

// NewPredictionUseCase constructs a new use case instance.
func NewPredictionUseCase(pipeline *Pipeline, repo PredictionRepository, cache Cache, logger *zap.Logger) *PredictionUseCase {
	return &PredictionUseCase{
		pipeline: pipeline,
		repo:     repo,
		cache:    cache,
		logger:   logger.Named("prediction_usecase"),
		policy:   retry.DefaultPolicy(),
		now:      time.Now,
	}
}

// Predict estimates BMI from a front and side photograph for userID, then
// persists and caches the result under a fresh request id.
func (uc *PredictionUseCase) Predict(ctx context.Context, userID string, front, side uploads.File) (*Prediction, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.predict", requestID)
	started := uc.now()

	cacheKey := resultKey(requestID)
	if err := retry.Do(ctx, uc.policy, uc.logger, "cache.set.processing", requestID, func() error {
		return uc.cache.Set(ctx, cacheKey, marker(processingMarker, userID), processingTTL)
	}); err != nil {
		opLogger.Error("failed to set processing flag", zap.Error(err))
		return nil, err
	}

	estimate, err := uc.pipeline.Run(ctx, requestID, front, side)
	if err != nil {
		opLogger.Error("prediction failed", zap.Error(err))
		if cacheErr := uc.cache.Set(ctx, cacheKey, marker(failedMarker, userID), processingTTL); cacheErr != nil {
			opLogger.Warn("failed to mark prediction as failed", zap.Error(cacheErr))
		}
		return nil, err
	}

	log := &repository.PredictionLog{
		RequestID: requestID,
		UserID:    userID,
		BMI:       estimate.BMI,
		Category:  estimate.Status.Label,
		FrontSHA1: sha1Hex(front.Data),
		SideSHA1:  sha1Hex(side.Data),
		LatencyMs: uc.now().Sub(started).Milliseconds(),
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.repo.SaveLog(ctx, log); err != nil {
		wrapped := logging.NewOperationError("usecase.save_log", requestID, err)
		opLogger.Error("failed to persist prediction log", zap.Error(wrapped))
		return nil, wrapped
	}

	prediction := &Prediction{
		RequestID:  requestID,
		UserID:     userID,
		BMI:        estimate.BMI,
		Category:   estimate.Status.Label,
		ColorClass: estimate.Status.ColorClass,
		CreatedAt:  log.CreatedAt,
	}

	serialized, err := json.Marshal(prediction)
	if err != nil {
		opLogger.Error("failed to serialize prediction", zap.Error(err))
		return nil, err
	}
	if err := retry.Do(ctx, uc.policy, uc.logger, "cache.set.result", requestID, func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), resultTTL)
	}); err != nil {
		// The log row is already durable; GetResult falls back to it.
		opLogger.Warn("failed to cache prediction", zap.Error(err))
	}

	return prediction, nil
}

// GetResult retrieves a cached prediction or loads it from persistence. Only
// the user who made the prediction can read it.
func (uc *PredictionUseCase) GetResult(ctx context.Context, userID, requestID string) (*Prediction, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	var (
		cached string
		miss   bool
	)
	err := retry.Do(ctx, uc.policy, uc.logger, "cache.get.result", requestID, func() error {
		value, err := uc.cache.Get(ctx, resultKey(requestID))
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		cached = value
		return err
	})
	switch {
	case err != nil:
		opLogger.Warn("failed to read cache", zap.Error(err))
	case miss:
	case isMarker(cached):
		state, owner, _ := strings.Cut(cached, ":")
		if owner != userID {
			return nil, ErrNotFound
		}
		if state == failedMarker {
			return nil, ErrFailed
		}
		return nil, ErrPending
	default:
		var payload Prediction
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			opLogger.Warn("failed to decode cached result", zap.Error(err))
		} else if payload.UserID != userID {
			return nil, ErrNotFound
		} else {
			return &payload, nil
		}
	}

	log, err := uc.repo.FindByRequestIDAndUser(ctx, requestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return predictionFromLog(log), nil
}

func predictionFromLog(log *repository.PredictionLog) *Prediction {
	p := &Prediction{
		RequestID: log.RequestID,
		UserID:    log.UserID,
		BMI:       log.BMI,
		Category:  log.Category,
		CreatedAt: log.CreatedAt,
	}
	for _, band := range bmi.Bands {
		if band.Label == log.Category {
			p.ColorClass = band.ColorClass
		}
	}
	return p
}

// marker tags a pending or failed request with its owner.
func marker(state, userID string) string {
	return state + ":" + userID
}

func isMarker(cached string) bool {
	return strings.HasPrefix(cached, processingMarker+":") || strings.HasPrefix(cached, failedMarker+":")
}

func resultKey(requestID string) string {
	return fmt.Sprintf("prediction:%s", requestID)
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
