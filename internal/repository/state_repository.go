package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nagu/shado/pkg/cleanup"
	"github.com/nagu/shado/pkg/entity"

	_ "modernc.org/sqlite"
)

// snapshotVersion tags every persisted blob; unknown versions fall back to
// the default state instead of failing the load.
const snapshotVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type snapshotEnvelope struct {
	Version int              `json:"version"`
	State   *entity.AppState `json:"state"`
}

type StateRepository struct {
	db  *sql.DB
	key string
}

func NewStateRepo(cfg DBConfig) *StateRepository {
	db, err := openDB(cfg.DBPath())
	if err != nil {
		log.Fatal("opening state database error: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing state database",
		F:    db.Close,
	})
	return &StateRepository{
		db:  db,
		key: cfg.StateKey(),
	}
}

func NewStateRepoWithDB(db *sql.DB, key string) *StateRepository {
	if err := db.Ping(); err != nil {
		log.Fatal("error while pinging database for stateRepo: " + err.Error())
	}
	if key == "" {
		key = StateKeyDefault
	}
	return &StateRepository{
		db:  db,
		key: key,
	}
}

// openDB creates the database file (and its directory) on first run and
// applies the schema, which is safe to re-run.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.New("creating database dir error: " + err.Error())
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New("opening database error: " + err.Error())
	}
	if err = db.Ping(); err != nil {
		return nil, errors.New("pinging database error: " + err.Error())
	}
	if _, err = db.Exec(schema); err != nil {
		return nil, errors.New("applying schema error: " + err.Error())
	}
	return db, nil
}

func (sr *StateRepository) Load(ctx context.Context) (*entity.AppState, error) {
	var payload string
	row := sr.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE key = ?;`, sr.key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.DefaultState(), nil
		}
		return nil, errors.New("loading snapshot error: " + err.Error())
	}
	var env snapshotEnvelope
	if err := sonic.ConfigDefault.Unmarshal([]byte(payload), &env); err != nil {
		// A corrupted snapshot counts as "no prior state", not an error
		return entity.DefaultState(), nil
	}
	if env.Version != snapshotVersion || env.State == nil {
		return entity.DefaultState(), nil
	}
	if env.State.History == nil {
		env.State.History = []entity.DailyEntry{}
	}
	return env.State, nil
}

func (sr *StateRepository) Save(ctx context.Context, state *entity.AppState) error {
	payload, err := sonic.ConfigDefault.Marshal(snapshotEnvelope{
		Version: snapshotVersion,
		State:   state,
	})
	if err != nil {
		return errors.New("marshalling snapshot error: " + err.Error())
	}
	_, err = sr.db.ExecContext(ctx, `INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at;`,
		sr.key,
		string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.New("saving snapshot error: " + err.Error())
	}
	return nil
}
