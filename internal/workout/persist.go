package workout

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// PersistedState is the exact subset of store state that survives a
// restart. Keeping it a distinct type makes the persisted field set a
// compile-time contract: the rest timer and summary have no place here.
type PersistedState struct {
	ActiveWorkout   *ActiveWorkout `json:"active_workout"`
	IsWorkoutActive bool           `json:"is_workout_active"`
}

// Persister stores and recalls one user's persisted state.
type Persister interface {
	Save(state PersistedState) error
	Load() (PersistedState, bool, error)
}

// StateDB is the SQLite database holding every user's persisted active
// workout, one row per user.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS active_workouts (
		user_id    TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// ForUser returns a Persister scoped to one user's row.
func (s *StateDB) ForUser(userID string) Persister {
	return &userPersister{db: s.db, userID: userID}
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

type userPersister struct {
	db     *sql.DB
	userID string
}

func (p *userPersister) Save(state PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	_, err = p.db.Exec(
		`INSERT OR REPLACE INTO active_workouts (user_id, state) VALUES (?, ?)`,
		p.userID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (p *userPersister) Load() (PersistedState, bool, error) {
	var data string
	err := p.db.QueryRow(
		`SELECT state FROM active_workouts WHERE user_id = ?`, p.userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return PersistedState{}, false, nil
	}
	if err != nil {
		return PersistedState{}, false, fmt.Errorf("loading state: %w", err)
	}

	var state PersistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return PersistedState{}, false, fmt.Errorf("unmarshaling state: %w", err)
	}
	return state, true, nil
}
