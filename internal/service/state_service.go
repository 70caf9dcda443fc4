package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	errorvalues "github.com/nagu/shado/internal/error_values"
	"github.com/nagu/shado/internal/repository"
	"github.com/nagu/shado/pkg/entity"
)

// newID generates the opaque ids for goals and tasks.
var newID = uuid.NewString

type StateService struct {
	repo repository.StateRepositoryI
}

func NewStateService(stateRepo repository.StateRepositoryI) *StateService {
	if stateRepo == nil {
		log.Fatal("provided nil stateRepo")
	}
	return &StateService{
		repo: stateRepo,
	}
}

func (ss *StateService) Current(ctx context.Context) (*entity.AppState, error) {
	state, err := ss.repo.Load(ctx)
	if err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

func (ss *StateService) Replace(ctx context.Context, state *entity.AppState) (*entity.AppState, error) {
	if state == nil {
		state = entity.DefaultState()
	}
	if state.History == nil {
		state.History = []entity.DailyEntry{}
	}
	if err := ss.repo.Save(ctx, state); err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

func (ss *StateService) FinalizeGoal(ctx context.Context, req *FinalizeGoalRequest) (*entity.AppState, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", errorvalues.ErrInvalidDraft, err.Error())
	}
	tasks := make([]entity.Task, 0, len(req.Tasks))
	for _, draft := range req.Tasks {
		task := entity.Task{
			ID:          newID(),
			Label:       draft.Label,
			Description: draft.Description,
			Kind:        draft.Kind,
		}
		// Unit only makes sense on quantitative tasks
		if draft.Kind == entity.TaskQuantitative {
			task.Unit = draft.Unit
		}
		tasks = append(tasks, task)
	}
	// A new protocol always starts a new, unrelated history
	state := &entity.AppState{
		CurrentGoal: &entity.Goal{
			ID:        newID(),
			Title:     req.Title,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Tasks:     tasks,
		},
		History: []entity.DailyEntry{},
	}
	if err := ss.repo.Save(ctx, state); err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

func (ss *StateService) ResetGoal(ctx context.Context) (*entity.AppState, error) {
	state := entity.DefaultState()
	if err := ss.repo.Save(ctx, state); err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

func (ss *StateService) ReorderTasks(ctx context.Context, from, to int) (*entity.AppState, error) {
	state, err := ss.repo.Load(ctx)
	if err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	if state.CurrentGoal == nil {
		return state, nil
	}
	tasks := state.CurrentGoal.Tasks
	if from < 0 || from >= len(tasks) || to < 0 || to >= len(tasks) || from == to {
		return state, nil
	}
	state.CurrentGoal.Tasks = reorder(tasks, from, to)
	if err := ss.repo.Save(ctx, state); err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

// reorder moves the element at from to position to, keeping every other
// relative order. Indices are assumed to be in range.
func reorder(tasks []entity.Task, from, to int) []entity.Task {
	moved := tasks[from]
	rest := make([]entity.Task, 0, len(tasks))
	rest = append(rest, tasks[:from]...)
	rest = append(rest, tasks[from+1:]...)
	out := make([]entity.Task, 0, len(tasks))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return out
}
