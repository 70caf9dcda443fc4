package service

import (
	"context"
	"errors"
	"log"

	errorvalues "github.com/nagu/shado/internal/error_values"
	"github.com/nagu/shado/internal/repository"
	"github.com/nagu/shado/pkg/entity"
)

// EntriesService reconciles "the calendar date right now" with history:
// at most one entry ever exists per date key.
type EntriesService struct {
	repo repository.StateRepositoryI
}

func NewEntriesService(stateRepo repository.StateRepositoryI) *EntriesService {
	if stateRepo == nil {
		log.Fatal("provided nil stateRepo")
	}
	return &EntriesService{
		repo: stateRepo,
	}
}

// GetOrCreateToday returns today's entry, creating and persisting an empty
// one the first time today is touched. Repeated calls for the same date key
// keep returning that same entry, never a duplicate.
func (es *EntriesService) GetOrCreateToday(ctx context.Context, today string) (entity.DailyEntry, error) {
	state, err := es.repo.Load(ctx)
	if err != nil {
		return entity.DailyEntry{}, errors.New("state repository error: " + err.Error())
	}
	if state.CurrentGoal == nil {
		return entity.DailyEntry{}, errorvalues.ErrNoActiveGoal
	}
	if existing, ok := findEntry(state.History, today); ok {
		return existing, nil
	}
	entry := entity.DailyEntry{
		Date:    today,
		Results: map[string]entity.Result{},
	}
	state.History = append(state.History, entry)
	if err := es.repo.Save(ctx, state); err != nil {
		return entity.DailyEntry{}, errors.New("state repository error: " + err.Error())
	}
	return entry, nil
}

// ApplyResult overwrites one task's result within today's entry and upserts
// the entry back into history. Results for other tasks that day and entries
// for other dates are left as they were. The tagged value is stored as
// given, no cross-kind coercion.
func (es *EntriesService) ApplyResult(ctx context.Context, today, taskID string, result entity.Result) (*entity.AppState, error) {
	state, err := es.repo.Load(ctx)
	if err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	if state.CurrentGoal == nil {
		return state, errorvalues.ErrNoActiveGoal
	}
	entry, ok := findEntry(state.History, today)
	if !ok {
		entry = entity.DailyEntry{Date: today}
	}
	updated := entity.DailyEntry{
		Date:    today,
		Results: make(map[string]entity.Result, len(entry.Results)+1),
	}
	for id, r := range entry.Results {
		updated.Results[id] = r
	}
	updated.Results[taskID] = result
	state.History = upsertEntry(state.History, updated)
	if err := es.repo.Save(ctx, state); err != nil {
		return nil, errors.New("state repository error: " + err.Error())
	}
	return state, nil
}

func findEntry(history []entity.DailyEntry, date string) (entity.DailyEntry, bool) {
	for _, e := range history {
		if e.Date == date {
			return e, true
		}
	}
	return entity.DailyEntry{}, false
}

// upsertEntry drops any entry sharing the date and appends the replacement,
// so exactly one entry per date survives.
func upsertEntry(history []entity.DailyEntry, entry entity.DailyEntry) []entity.DailyEntry {
	out := make([]entity.DailyEntry, 0, len(history)+1)
	for _, e := range history {
		if e.Date != entry.Date {
			out = append(out, e)
		}
	}
	return append(out, entry)
}
