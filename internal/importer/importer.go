package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
	"github.com/whataboutred/redjitsu/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	WorkoutsInserted int
	WorkoutsSkipped  int
	ExercisesCreated int
	SetsInserted     int
}

// Store is the slice of the history store the importer needs.
type Store interface {
	ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error)
	CreateExercise(ctx context.Context, userID, name, category string) (uuid.UUID, error)
	SaveWorkout(ctx context.Context, rec storage.WorkoutRecord) error
}

// exportWorkout is one workout in the JSON export format produced by
// common tracker apps' "export all data" feature.
type exportWorkout struct {
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Location  string    `json:"location"`
	Exercises []struct {
		Name string `json:"name"`
		Sets []struct {
			Weight float64 `json:"weight"`
			Reps   int     `json:"reps"`
			Warmup bool    `json:"warmup"`
		} `json:"sets"`
	} `json:"exercises"`
}

// Importer reads a JSON workout export and inserts it for one user.
// Exercises are matched to the catalog by name (case-insensitive) and
// created when missing.
type Importer struct {
	store  Store
	log    *slog.Logger
	userID string
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(store Store, userID string, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, userID: userID, log: log, dryRun: dryRun}
}

// Import reads the export file and inserts every workout in it.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading export: %w", err)
	}

	var workouts []exportWorkout
	if err := json.Unmarshal(data, &workouts); err != nil {
		return &imp.stats, fmt.Errorf("parsing export: %w", err)
	}

	catalog, err := imp.loadCatalog(ctx)
	if err != nil {
		return &imp.stats, err
	}

	for i, w := range workouts {
		if w.Date.IsZero() || len(w.Exercises) == 0 {
			imp.log.Warn("skipping workout", "index", i, "reason", "missing date or exercises")
			imp.stats.WorkoutsSkipped++
			continue
		}
		if err := imp.importWorkout(ctx, w, catalog); err != nil {
			return &imp.stats, fmt.Errorf("workout %d (%s): %w", i, w.Date.Format("2006-01-02"), err)
		}
	}

	return &imp.stats, nil
}

// loadCatalog maps lowercased exercise names to their IDs.
func (imp *Importer) loadCatalog(ctx context.Context) (map[string]uuid.UUID, error) {
	rows, err := imp.store.ListExercises(ctx, imp.userID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise catalog: %w", err)
	}
	catalog := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		catalog[strings.ToLower(row.Name)] = row.ID
	}
	return catalog, nil
}

func (imp *Importer) importWorkout(ctx context.Context, w exportWorkout, catalog map[string]uuid.UUID) error {
	rec := storage.WorkoutRecord{
		WorkoutRow: models.WorkoutRow{
			ID:          uuid.New(),
			UserID:      imp.userID,
			PerformedAt: w.Date,
			Title:       w.Title,
			Notes:       w.Notes,
		},
	}
	if w.Location != "" {
		loc := w.Location
		rec.Location = &loc
	}

	for pos, ex := range w.Exercises {
		exerciseID, ok := catalog[strings.ToLower(ex.Name)]
		if !ok {
			if imp.dryRun {
				exerciseID = uuid.New()
			} else {
				id, err := imp.store.CreateExercise(ctx, imp.userID, ex.Name, "")
				if err != nil {
					return fmt.Errorf("creating exercise %q: %w", ex.Name, err)
				}
				exerciseID = id
			}
			catalog[strings.ToLower(ex.Name)] = exerciseID
			imp.stats.ExercisesCreated++
		}

		exRec := storage.ExerciseRecord{
			WorkoutExerciseRow: models.WorkoutExerciseRow{
				ID:           uuid.New(),
				WorkoutID:    rec.ID,
				ExerciseID:   exerciseID,
				ExerciseName: ex.Name,
				Position:     pos,
			},
		}
		for i, set := range ex.Sets {
			setType := models.SetTypeWorking
			if set.Warmup {
				setType = models.SetTypeWarmup
			}
			exRec.Sets = append(exRec.Sets, models.SetRow{
				ID:                uuid.New(),
				WorkoutExerciseID: exRec.ID,
				Weight:            set.Weight,
				Reps:              set.Reps,
				SetType:           setType,
				SetIndex:          i,
			})
		}
		imp.stats.SetsInserted += len(exRec.Sets)
		rec.Exercises = append(rec.Exercises, exRec)
	}

	if !imp.dryRun {
		if err := imp.store.SaveWorkout(ctx, rec); err != nil {
			return fmt.Errorf("saving: %w", err)
		}
	}
	imp.stats.WorkoutsInserted++
	return nil
}
