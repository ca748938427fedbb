package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
	"github.com/whataboutred/redjitsu/internal/storage"
	"github.com/whataboutred/redjitsu/internal/suggest"
)

// DataSource abstracts the workout history store for MCP tools so tests
// can script results without a database.
type DataSource interface {
	ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error)
	QueryWorkouts(ctx context.Context, userID string, limit int) ([]models.WorkoutRow, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID string) (*storage.WorkoutRecord, error)
	WeeklyVolume(ctx context.Context, userID string, start, end time.Time) ([]storage.VolumePeriod, error)
}

// SetSource answers last-performed set queries. Satisfied by
// *suggest.Resolver.
type SetSource interface {
	LastSets(ctx context.Context, userID string, exerciseID uuid.UUID, location string) (suggest.WorkoutSets, bool)
	LastThreeWorkouts(ctx context.Context, userID string, exerciseID uuid.UUID, location string) []suggest.WorkoutSets
}

// Compile-time checks against the concrete implementations.
var (
	_ DataSource = (*storage.DB)(nil)
	_ SetSource  = (*suggest.Resolver)(nil)
)
