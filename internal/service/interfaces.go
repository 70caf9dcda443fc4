package service

import (
	"context"
	"time"

	"github.com/nagu/shado/pkg/entity"
)

type TaskDraft struct {
	Label       string          `validate:"required,notblank"`
	Description string
	Kind        entity.TaskKind `validate:"required,oneof=binary quantitative"`
	Unit        string
}

type FinalizeGoalRequest struct {
	Title     string `validate:"required,notblank"`
	StartDate time.Time
	EndDate   time.Time
	Tasks     []TaskDraft `validate:"required,min=1,dive"`
}

type StateServiceI interface {
	// Returns the current snapshot (default empty state on first run)
	Current(ctx context.Context) (*entity.AppState, error)
	// Replaces the whole snapshot and persists it before returning
	Replace(ctx context.Context, state *entity.AppState) (*entity.AppState, error)
	// Validates the draft and, on success, installs a fresh goal with a new
	// history. Invalid drafts surface ErrInvalidDraft and leave state untouched
	FinalizeGoal(ctx context.Context, req *FinalizeGoalRequest) (*entity.AppState, error)
	// Discards the goal and its whole history. Destructive, the caller gates it
	ResetGoal(ctx context.Context) (*entity.AppState, error)
	// Moves the task at from to position to. Out-of-range indices are a no-op
	ReorderTasks(ctx context.Context, from, to int) (*entity.AppState, error)
}

type EntriesServiceI interface {
	// Finds today's entry, creating (and persisting) an empty one on first touch
	GetOrCreateToday(ctx context.Context, today string) (entity.DailyEntry, error)
	// Writes one task's result into today's entry under the upsert-by-date rule
	ApplyResult(ctx context.Context, today, taskID string, result entity.Result) (*entity.AppState, error)
}

type InsightsServiceI interface {
	// Aggregates the current goal's history. ErrNoData when there is nothing to show
	Summary(ctx context.Context) (*Summary, error)
}
