package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nagu/shado/pkg/entity"
)

type StateRepositoryI interface {
	// Returns the persisted snapshot. Missing or unreadable snapshots yield
	// the default empty state, never an error the caller has to branch on
	Load(ctx context.Context) (*entity.AppState, error)
	// Persists the whole snapshot under the fixed state key before returning
	Save(ctx context.Context, state *entity.AppState) error
}

type DBConfig interface {
	DBPath() string
	StateKey() string
}

// StateKeyDefault matches the storage key the original web client used, so
// the snapshot row stays recognizable in the database.
const StateKeyDefault = "shado_track_state"

type SQLiteCfg struct {
	Path string
	Key  string
}

func (cfg *SQLiteCfg) DBPath() string {
	return cfg.Path
}

func (cfg *SQLiteCfg) StateKey() string {
	if cfg.Key == "" {
		return StateKeyDefault
	}
	return cfg.Key
}

// DefaultDBPath is the on-device database location when SHADO_DB_PATH
// isn't set.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "shado", "shado.db"), nil
}
