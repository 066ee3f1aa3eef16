package usecase

import (
	"context"

	"github.com/example/bmi-check/internal/bmi"
)

// MetricsSummary represents aggregated prediction insights.
type MetricsSummary struct {
	TotalPredictions        int64            `json:"total_predictions"`
	AverageBMI              float64          `json:"average_bmi"`
	AverageProcessingTimeMs float64          `json:"average_processing_latency_ms"`
	Categories              map[string]int64 `json:"categories"`
}

// GetMetricsSummary aggregates prediction metrics from persisted logs. Every
// band is present in Categories, with zero counts for unused ones.
func (uc *PredictionUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalPredictions:        aggregation.TotalCount,
		AverageBMI:              bmi.Round(aggregation.AverageBMI),
		AverageProcessingTimeMs: aggregation.AverageLatencyMs,
		Categories:              make(map[string]int64, len(bmi.Bands)),
	}
	for _, band := range bmi.Bands {
		summary.Categories[band.Label] = 0
	}
	for _, c := range aggregation.Categories {
		summary.Categories[c.Category] = c.Count
	}

	return summary, nil
}
