package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
	"github.com/whataboutred/redjitsu/internal/storage"
)

type fakeStore struct {
	exercises []models.ExerciseRow
	created   []string
	saved     []storage.WorkoutRecord
}

func (f *fakeStore) ListExercises(_ context.Context, _ string) ([]models.ExerciseRow, error) {
	return f.exercises, nil
}

func (f *fakeStore) CreateExercise(_ context.Context, _ string, name, _ string) (uuid.UUID, error) {
	id := uuid.New()
	f.created = append(f.created, name)
	f.exercises = append(f.exercises, models.ExerciseRow{ID: id, Name: name})
	return id, nil
}

func (f *fakeStore) SaveWorkout(_ context.Context, rec storage.WorkoutRecord) error {
	f.saved = append(f.saved, rec)
	return nil
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleExport = `[
  {
    "date": "2025-08-01T18:00:00Z",
    "title": "Leg Day",
    "location": "gym",
    "exercises": [
      {"name": "Squat", "sets": [
        {"weight": 60, "reps": 8, "warmup": true},
        {"weight": 100, "reps": 5},
        {"weight": 100, "reps": 5}
      ]},
      {"name": "Leg Press", "sets": [{"weight": 180, "reps": 10}]}
    ]
  },
  {
    "date": "2025-08-03T18:00:00Z",
    "title": "Push",
    "exercises": [
      {"name": "Bench Press", "sets": [{"weight": 80, "reps": 5}]}
    ]
  }
]`

func TestImportCreatesMissingExercises(t *testing.T) {
	store := &fakeStore{exercises: []models.ExerciseRow{
		{ID: uuid.New(), Name: "Squat"},
	}}
	imp := New(store, "local", slog.Default(), false)

	stats, err := imp.Import(context.Background(), writeExport(t, sampleExport))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.WorkoutsInserted != 2 {
		t.Errorf("workouts inserted = %d, want 2", stats.WorkoutsInserted)
	}
	if stats.ExercisesCreated != 2 {
		t.Errorf("exercises created = %d, want 2 (Leg Press, Bench Press)", stats.ExercisesCreated)
	}
	if stats.SetsInserted != 5 {
		t.Errorf("sets inserted = %d, want 5", stats.SetsInserted)
	}
	if len(store.created) != 2 {
		t.Fatalf("created = %v, want 2 entries", store.created)
	}
}

func TestImportMapsSetTypes(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, "local", slog.Default(), false)

	if _, err := imp.Import(context.Background(), writeExport(t, sampleExport)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	squat := store.saved[0].Exercises[0]
	if squat.Sets[0].SetType != models.SetTypeWarmup {
		t.Errorf("first set type = %q, want warmup", squat.Sets[0].SetType)
	}
	if squat.Sets[1].SetType != models.SetTypeWorking {
		t.Errorf("second set type = %q, want working", squat.Sets[1].SetType)
	}
	if squat.Sets[2].SetIndex != 2 {
		t.Errorf("set index = %d, want 2", squat.Sets[2].SetIndex)
	}

	loc := store.saved[0].Location
	if loc == nil || *loc != "gym" {
		t.Errorf("location = %v, want gym", loc)
	}
	if store.saved[1].Location != nil {
		t.Errorf("second workout location = %v, want nil", store.saved[1].Location)
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, "local", slog.Default(), true)

	stats, err := imp.Import(context.Background(), writeExport(t, sampleExport))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 0 || len(store.created) != 0 {
		t.Errorf("dry run wrote data: saved=%d created=%d", len(store.saved), len(store.created))
	}
	if stats.WorkoutsInserted != 2 {
		t.Errorf("dry run should still count workouts, got %d", stats.WorkoutsInserted)
	}
}

func TestImportSkipsInvalidWorkouts(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, "local", slog.Default(), false)

	export := `[{"title": "no date", "exercises": [{"name": "Squat", "sets": [{"weight": 1, "reps": 1}]}]}]`
	stats, err := imp.Import(context.Background(), writeExport(t, export))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.WorkoutsSkipped != 1 || stats.WorkoutsInserted != 0 {
		t.Errorf("stats = %+v, want 1 skipped 0 inserted", stats)
	}
}

func TestImportRejectsBadJSON(t *testing.T) {
	imp := New(&fakeStore{}, "local", slog.Default(), false)
	if _, err := imp.Import(context.Background(), writeExport(t, "{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
