package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumePeriod holds one week's training volume. Only working sets count;
// warm-ups are excluded from every total.
type VolumePeriod struct {
	WeekStart   time.Time `json:"week_start"`
	TotalVolume float64   `json:"total_volume"`
	TotalSets   int64     `json:"total_sets"`
	TotalReps   int64     `json:"total_reps"`
	Workouts    int64     `json:"workouts"`
}

// WeeklyVolume aggregates per-week training volume for a user over a time
// range, oldest week first.
func (db *DB) WeeklyVolume(ctx context.Context, userID string, start, end time.Time) ([]VolumePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc('week', w.performed_at) AS week_start,
		        COALESCE(SUM(s.weight * s.reps), 0),
		        COUNT(s.id),
		        COALESCE(SUM(s.reps), 0),
		        COUNT(DISTINCT w.id)
		 FROM workouts w
		 JOIN workout_exercises we ON we.workout_id = w.id
		 JOIN sets s ON s.workout_exercise_id = we.id
		 WHERE w.user_id = $1
		   AND w.performed_at >= $2 AND w.performed_at < $3
		   AND s.set_type = 'working'
		 GROUP BY week_start
		 ORDER BY week_start ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying weekly volume: %w", err)
	}
	defer rows.Close()

	var result []VolumePeriod
	for rows.Next() {
		var p VolumePeriod
		if err := rows.Scan(&p.WeekStart, &p.TotalVolume, &p.TotalSets, &p.TotalReps, &p.Workouts); err != nil {
			return nil, fmt.Errorf("scanning volume period: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
