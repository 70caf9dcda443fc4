package service

import (
	"context"
	"errors"
	"log"

	errorvalues "github.com/nagu/shado/internal/error_values"
	"github.com/nagu/shado/internal/repository"
	"github.com/nagu/shado/pkg/entity"
)

// trendWindow is how many of the most recently stored entries feed the
// quantitative trend.
const trendWindow = 7

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Summary struct {
	SuccessRatePercent float64        `json:"success_rate_percent"`
	FailureReasons     map[string]int `json:"failure_reasons"`
	Trend              []TrendPoint   `json:"trend"`
	QuantTaskLabel     string         `json:"quant_task_label"`
}

// ComputeSummary aggregates a goal's history. Pure: inputs are never
// mutated. Returns nil when there is no goal or no history to aggregate.
//
// The trend covers the last trendWindow entries in stored order. The
// reconciler keeps history append-ordered by last touch, which is
// chronological for the intended one-day-at-a-time usage.
func ComputeSummary(goal *entity.Goal, history []entity.DailyEntry) *Summary {
	if goal == nil || len(history) == 0 {
		return nil
	}

	totalBinary := 0
	successBinary := 0
	failureReasons := map[string]int{}
	for _, entry := range history {
		for taskID, result := range entry.Results {
			task, ok := goal.TaskByID(taskID)
			if !ok {
				// Stale key from a removed task, skip for classification
				continue
			}
			if task.Kind != entity.TaskBinary {
				continue
			}
			totalBinary++
			if result.Success {
				successBinary++
			} else if result.Reason != nil && *result.Reason != "" {
				// Exact string, case-sensitive: "Tired" and "tired" are
				// distinct causes
				failureReasons[*result.Reason]++
			}
		}
	}

	successRate := 0.0
	if totalBinary > 0 {
		successRate = float64(successBinary) / float64(totalBinary) * 100
	}

	quantTask, hasQuant := firstQuantTask(goal)
	quantLabel := "Value"
	trend := []TrendPoint{}
	if hasQuant {
		quantLabel = quantTask.Label
		start := len(history) - trendWindow
		if start < 0 {
			start = 0
		}
		for _, entry := range history[start:] {
			point := TrendPoint{Date: entry.Date}
			if r, ok := entry.Results[quantTask.ID]; ok && r.Kind == entity.TaskQuantitative {
				point.Value = r.Value
			}
			trend = append(trend, point)
		}
	}

	return &Summary{
		SuccessRatePercent: successRate,
		FailureReasons:     failureReasons,
		Trend:              trend,
		QuantTaskLabel:     quantLabel,
	}
}

func firstQuantTask(goal *entity.Goal) (entity.Task, bool) {
	for _, t := range goal.Tasks {
		if t.Kind == entity.TaskQuantitative {
			return t, true
		}
	}
	return entity.Task{}, false
}

type InsightsService struct {
	repo repository.StateRepositoryI
}

func NewInsightsService(stateRepo repository.StateRepositoryI) *InsightsService {
	if stateRepo == nil {
		log.Fatal("provided nil stateRepo")
	}
	return &InsightsService{
		repo: stateRepo,
	}
}

func (is *InsightsService) Summary(ctx context.Context) (*Summary, error) {
	state, err := is.repo.Load(ctx)
	if err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	summary := ComputeSummary(state.CurrentGoal, state.History)
	if summary == nil {
		return nil, errorvalues.ErrNoData
	}
	return summary, nil
}
