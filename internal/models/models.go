package models

import (
	"time"

	"github.com/google/uuid"
)

// SetType distinguishes warm-up sets from working sets. Warm-ups are
// excluded from volume totals and visible set numbering.
type SetType string

const (
	SetTypeWarmup  SetType = "warmup"
	SetTypeWorking SetType = "working"
)

// ExerciseRow is a row in the exercises catalog. UserID is empty for
// global exercises and holds the owner for user-created ones.
type ExerciseRow struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id,omitempty"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}

// WorkoutRow is a row in the workouts table.
type WorkoutRow struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	PerformedAt time.Time `json:"performed_at"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	Location    *string   `json:"location,omitempty"`
}

// WorkoutExerciseRow links a workout to an exercise, snapshotting the
// display name at logging time.
type WorkoutExerciseRow struct {
	ID           uuid.UUID `json:"id"`
	WorkoutID    uuid.UUID `json:"workout_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Position     int       `json:"position"`
}

// SetRow is a row in the sets table.
type SetRow struct {
	ID                uuid.UUID `json:"id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	Weight            float64   `json:"weight"`
	Reps              int       `json:"reps"`
	SetType           SetType   `json:"set_type"`
	SetIndex          int       `json:"set_index"`
}

// HistorySet is one set from a prior workout, as returned by the
// last-performed queries.
type HistorySet struct {
	Weight   float64 `json:"weight"`
	Reps     int     `json:"reps"`
	SetType  SetType `json:"set_type"`
	SetIndex int     `json:"set_index"`
}

// HistoryRow is one set row from the last-performed join, flattened:
// one HistoryRow per set, ordered by workout date descending. Location
// is nil when the row came through the no-location query shape (older
// schema) or when the column is null.
type HistoryRow struct {
	ExerciseID  uuid.UUID
	WorkoutID   uuid.UUID
	PerformedAt time.Time
	Location    *string
	Set         HistorySet
}
