package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
)

// ExerciseRecord is a workout-exercise link with its sets.
type ExerciseRecord struct {
	models.WorkoutExerciseRow
	Sets []models.SetRow `json:"sets"`
}

// WorkoutRecord is a complete workout ready for persistence: the workout
// row plus its ordered exercises and their sets.
type WorkoutRecord struct {
	models.WorkoutRow
	Exercises []ExerciseRecord `json:"exercises"`
}

// SaveWorkout persists a finished workout with all exercises and sets in
// one transaction. On schemas without the location column the location
// value is dropped.
func (db *DB) SaveWorkout(ctx context.Context, rec WorkoutRecord) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if db.hasLocation {
		_, err = tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, performed_at, title, notes, location)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			rec.ID, rec.UserID, rec.PerformedAt, rec.Title, rec.Notes, rec.Location)
	} else {
		_, err = tx.Exec(ctx,
			`INSERT INTO workouts (id, user_id, performed_at, title, notes)
			 VALUES ($1,$2,$3,$4,$5)`,
			rec.ID, rec.UserID, rec.PerformedAt, rec.Title, rec.Notes)
	}
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}

	var sets []models.SetRow
	for _, ex := range rec.Exercises {
		_, err = tx.Exec(ctx,
			`INSERT INTO workout_exercises (id, workout_id, exercise_id, exercise_name, position)
			 VALUES ($1,$2,$3,$4,$5)`,
			ex.ID, rec.ID, ex.ExerciseID, ex.ExerciseName, ex.Position)
		if err != nil {
			return fmt.Errorf("inserting workout exercise: %w", err)
		}
		sets = append(sets, ex.Sets...)
	}

	if len(sets) > 0 {
		query := `INSERT INTO sets (id, workout_exercise_id, weight, reps, set_type, set_index) VALUES `
		args := make([]any, 0, len(sets)*6)
		valueStrings := make([]string, 0, len(sets))
		for i, s := range sets {
			base := i * 6
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6,
			))
			args = append(args, s.ID, s.WorkoutExerciseID, s.Weight, s.Reps, s.SetType, s.SetIndex)
		}
		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting sets: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// QueryWorkouts retrieves a user's most recent workouts, newest first.
func (db *DB) QueryWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error) {
	locExpr := "NULL::text"
	if db.hasLocation {
		locExpr = "location"
	}
	rows, err := db.Pool.Query(ctx, fmt.Sprintf(
		`SELECT id, user_id, performed_at, title, notes, %s
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY performed_at DESC
		 LIMIT $2`, locExpr),
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.ID, &w.UserID, &w.PerformedAt, &w.Title, &w.Notes, &w.Location); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a single workout with its exercises and sets.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID string) (*WorkoutRecord, error) {
	locExpr := "NULL::text"
	if db.hasLocation {
		locExpr = "location"
	}
	row := db.Pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, user_id, performed_at, title, notes, %s
		 FROM workouts WHERE id = $1 AND user_id = $2`, locExpr),
		workoutID, userID)

	var rec WorkoutRecord
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.PerformedAt, &rec.Title, &rec.Notes, &rec.Location); err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, exercise_id, exercise_name, position
		 FROM workout_exercises
		 WHERE workout_id = $1
		 ORDER BY position ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer exRows.Close()

	byID := map[uuid.UUID]int{}
	for exRows.Next() {
		var ex ExerciseRecord
		if err := exRows.Scan(&ex.ID, &ex.WorkoutID, &ex.ExerciseID, &ex.ExerciseName, &ex.Position); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		byID[ex.ID] = len(rec.Exercises)
		rec.Exercises = append(rec.Exercises, ex)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.workout_exercise_id, s.weight, s.reps, s.set_type, s.set_index
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY s.set_index ASC`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var s models.SetRow
		if err := setRows.Scan(&s.ID, &s.WorkoutExerciseID, &s.Weight, &s.Reps, &s.SetType, &s.SetIndex); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		if i, ok := byID[s.WorkoutExerciseID]; ok {
			rec.Exercises[i].Sets = append(rec.Exercises[i].Sets, s)
		}
	}

	return &rec, setRows.Err()
}
