package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
)

// lastPerformedSQL joins workout-exercise links to their parent workout and
// child sets for a user's requested exercises, newest workouts first. The
// link rows are capped before the set join so one query cannot fan out
// unbounded on long histories.
const lastPerformedSQL = `
	WITH recent AS (
		SELECT we.id, we.exercise_id, we.workout_id
		FROM workout_exercises we
		JOIN workouts w ON w.id = we.workout_id
		WHERE w.user_id = $1 AND we.exercise_id = ANY($2)
		ORDER BY w.performed_at DESC
		LIMIT $3
	)
	SELECT r.exercise_id, w.id, w.performed_at, %s
	       s.weight, s.reps, s.set_type, s.set_index
	FROM recent r
	JOIN workouts w ON w.id = r.workout_id
	JOIN sets s ON s.workout_exercise_id = r.id
	ORDER BY w.performed_at DESC, s.set_index ASC`

// LastPerformedRows returns one row per set from the most recent workouts
// containing any of the given exercises, ordered by workout date descending.
// With includeLocation false the query omits workouts.location entirely —
// the shape used against schemas that have not run migration 0002 — and
// every returned row has a nil Location.
func (db *DB) LastPerformedRows(ctx context.Context, userID string, exerciseIDs []uuid.UUID, limit int, includeLocation bool) ([]models.HistoryRow, error) {
	locExpr := "NULL::text,"
	if includeLocation {
		locExpr = "w.location,"
	}
	query := fmt.Sprintf(lastPerformedSQL, locExpr)

	rows, err := db.Pool.Query(ctx, query, userID, exerciseIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("querying last performed: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryRow
	for rows.Next() {
		var r models.HistoryRow
		if err := rows.Scan(&r.ExerciseID, &r.WorkoutID, &r.PerformedAt, &r.Location,
			&r.Set.Weight, &r.Set.Reps, &r.Set.SetType, &r.Set.SetIndex); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
