package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/bmi-check/internal/retry"
)

// PredictionLog represents one persisted BMI estimate.
type PredictionLog struct {
	ID        uint      `gorm:"primaryKey"`
	RequestID string    `gorm:"column:request_id;uniqueIndex;size:64"`
	UserID    string    `gorm:"column:user_id;index;size:64"`
	BMI       float64   `gorm:"column:bmi"`
	Category  string    `gorm:"column:category;size:32"`
	FrontSHA1 string    `gorm:"column:front_sha1;size:40"`
	SideSHA1  string    `gorm:"column:side_sha1;size:40"`
	LatencyMs int64     `gorm:"column:latency_ms"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (PredictionLog) TableName() string {
	return "prediction_logs"
}

// CategoryCount is the number of predictions that fell into one category.
type CategoryCount struct {
	Category string
	Count    int64
}

// MetricsAggregation holds raw aggregates over all prediction logs.
type MetricsAggregation struct {
	TotalCount       int64
	AverageBMI       float64
	AverageLatencyMs float64
	Categories       []CategoryCount
}

// PredictionRepository provides persistence APIs for prediction logs.
type PredictionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	policy retry.Policy
}

// NewPredictionRepository creates a new repository instance.
func NewPredictionRepository(db *gorm.DB, logger *zap.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:     db,
		logger: logger.Named("prediction_repository"),
		policy: retry.DefaultPolicy(),
	}
}

// AutoMigrate ensures the schema is available.
func (r *PredictionRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PredictionLog{})
}

// SaveLog persists a prediction log entry.
func (r *PredictionRepository) SaveLog(ctx context.Context, log *PredictionLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestIDAndUser retrieves a prediction log matching the request and owner.
func (r *PredictionRepository) FindByRequestIDAndUser(ctx context.Context, requestID, userID string) (*PredictionLog, error) {
	var log PredictionLog
	err := r.executeWithRetry(ctx, "repository.find_log", requestID, func() error {
		return r.db.WithContext(ctx).First(&log, "request_id = ? AND user_id = ?", requestID, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// AggregateMetrics summarizes every stored prediction.
func (r *PredictionRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var totals struct {
		TotalCount       int64
		AverageBMI       float64
		AverageLatencyMs float64
	}
	var categories []CategoryCount

	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		if err := r.db.WithContext(ctx).Model(&PredictionLog{}).
			Select("COUNT(*) AS total_count, COALESCE(AVG(bmi), 0) AS average_bmi, COALESCE(AVG(latency_ms), 0) AS average_latency_ms").
			Scan(&totals).Error; err != nil {
			return err
		}
		categories = categories[:0]
		return r.db.WithContext(ctx).Model(&PredictionLog{}).
			Select("category, COUNT(*) AS count").
			Group("category").
			Order("category").
			Scan(&categories).Error
	})
	if err != nil {
		return nil, err
	}

	return &MetricsAggregation{
		TotalCount:       totals.TotalCount,
		AverageBMI:       totals.AverageBMI,
		AverageLatencyMs: totals.AverageLatencyMs,
		Categories:       categories,
	}, nil
}

func (r *PredictionRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	return retry.Do(ctx, r.policy, r.logger, operation, requestID, fn)
}
