package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
)

// ListExercises returns the exercise catalog visible to a user: global
// exercises plus the user's own, sorted by name.
func (db *DB) ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, COALESCE(user_id, ''), name, category
		 FROM exercises
		 WHERE user_id IS NULL OR user_id = $1
		 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var e models.ExerciseRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Category); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CreateExercise inserts a user-owned exercise and returns its ID.
func (db *DB) CreateExercise(ctx context.Context, userID, name, category string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, category) VALUES ($1,$2,$3,$4)`,
		id, userID, name, category)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting exercise: %w", err)
	}
	return id, nil
}
