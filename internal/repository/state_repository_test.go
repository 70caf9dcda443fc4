package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nagu/shado/internal/repository"
	"github.com/nagu/shado/pkg/entity"
	"github.com/stretchr/testify/assert"

	_ "modernc.org/sqlite"
)

func newRepo(t *testing.T, path string) *repository.StateRepository {
	t.Helper()
	return repository.NewStateRepo(&repository.SQLiteCfg{Path: path})
}

func snapshotState() *entity.AppState {
	reason := "tired"
	return &entity.AppState{
		CurrentGoal: &entity.Goal{
			ID:        "g1",
			Title:     "Performance Protocol",
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			Tasks: []entity.Task{
				{ID: "t1", Label: "Strategic Planning", Kind: entity.TaskBinary},
				{ID: "t2", Label: "Focus Blocks", Kind: entity.TaskQuantitative, Unit: "hrs"},
			},
		},
		History: []entity.DailyEntry{
			{Date: "2024-01-01", Results: map[string]entity.Result{
				"t1": {Kind: entity.TaskBinary, Success: false, Reason: &reason},
				"t2": {Kind: entity.TaskQuantitative, Value: 3.5},
			}},
		},
	}
}

func TestLoadFirstRun(t *testing.T) {
	repo := newRepo(t, filepath.Join(t.TempDir(), "shado.db"))
	state, err := repo.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, state.CurrentGoal)
	assert.NotNil(t, state.History)
	assert.Empty(t, state.History)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shado.db")
	repo := newRepo(t, path)
	saved := snapshotState()
	assert.NoError(t, repo.Save(ctx, saved))

	loaded, err := repo.Load(ctx)
	assert.NoError(t, err)
	if !assert.NotNil(t, loaded.CurrentGoal) {
		return
	}
	assert.Equal(t, saved.CurrentGoal.ID, loaded.CurrentGoal.ID)
	assert.Equal(t, saved.CurrentGoal.Tasks, loaded.CurrentGoal.Tasks)
	assert.Len(t, loaded.History, 1)
	result := loaded.History[0].Results["t1"]
	assert.False(t, result.Success)
	if assert.NotNil(t, result.Reason) {
		assert.Equal(t, "tired", *result.Reason)
	}
	assert.Equal(t, 3.5, loaded.History[0].Results["t2"].Value)
}

func TestSaveSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shado.db")
	repo := newRepo(t, path)
	assert.NoError(t, repo.Save(ctx, snapshotState()))

	// A second repository over the same file stands in for a process restart
	reopened := newRepo(t, path)
	loaded, err := reopened.Load(ctx)
	assert.NoError(t, err)
	if assert.NotNil(t, loaded.CurrentGoal) {
		assert.Equal(t, "Performance Protocol", loaded.CurrentGoal.Title)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, filepath.Join(t.TempDir(), "shado.db"))
	assert.NoError(t, repo.Save(ctx, snapshotState()))
	assert.NoError(t, repo.Save(ctx, entity.DefaultState()))

	loaded, err := repo.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded.CurrentGoal)
	assert.Empty(t, loaded.History)
}

func injectPayload(t *testing.T, path, payload string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	_, err = db.Exec(`INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload;`,
		repository.StateKeyDefault, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoadMalformedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shado.db")
	repo := newRepo(t, path)
	injectPayload(t, path, "{not json")

	state, err := repo.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, state.CurrentGoal)
	assert.Empty(t, state.History)
}

func TestLoadUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shado.db")
	repo := newRepo(t, path)
	injectPayload(t, path, `{"version": 99, "state": {"current_goal": null, "history": []}}`)

	state, err := repo.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, state.CurrentGoal)
	assert.Empty(t, state.History)
}

func TestCustomStateKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shado.db")
	repo := repository.NewStateRepo(&repository.SQLiteCfg{Path: path, Key: "test_key"})
	assert.NoError(t, repo.Save(ctx, snapshotState()))

	// The default key must not see the snapshot saved under test_key
	other := newRepo(t, path)
	state, err := other.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, state.CurrentGoal)
}
