// Package suggest resolves "what did I lift last time" for a set of
// exercises. Results pre-fill new sets in the logging flow, so everything
// here is best-effort: a resolver that cannot reach the database returns
// empty results instead of errors.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
	"github.com/whataboutred/redjitsu/internal/queryutil"
)

// HistoryQuerier is the slice of the storage layer the resolver needs.
// *storage.DB satisfies it; tests use a fake.
type HistoryQuerier interface {
	LastPerformedRows(ctx context.Context, userID string, exerciseIDs []uuid.UUID, limit int, includeLocation bool) ([]models.HistoryRow, error)
	HasWorkoutLocation() bool
}

// Options tunes the resolver's retry envelope and concurrency. Zero values
// fall back to defaults.
type Options struct {
	Timeout       time.Duration // per query attempt (default 5s)
	MaxRetries    int           // per query shape (default 2)
	MaxConcurrent int           // shared limiter for single-exercise lookups (default 3)
	HistoryLimit  int           // link rows per query (default 100)
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 2
	}
	if o.MaxConcurrent == 0 {
		o.MaxConcurrent = 3
	}
	if o.HistoryLimit == 0 {
		o.HistoryLimit = 100
	}
	return o
}

// WorkoutSets is one prior workout's performance for an exercise: its date
// and ordered sets.
type WorkoutSets struct {
	Date time.Time           `json:"date"`
	Sets []models.HistorySet `json:"sets"`
}

// Resolver answers last-performed queries with retry, schema fallback and
// bounded concurrency.
type Resolver struct {
	q       HistoryQuerier
	limiter *queryutil.RateLimiter
	log     *slog.Logger
	opts    Options
}

// New creates a Resolver over the given querier.
func New(q HistoryQuerier, log *slog.Logger, opts Options) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{
		q:       q,
		limiter: queryutil.NewRateLimiter(opts.MaxConcurrent),
		log:     log,
		opts:    opts,
	}
}

// fetch runs one query shape through the retry envelope.
func (r *Resolver) fetch(ctx context.Context, userID string, exerciseIDs []uuid.UUID, includeLocation bool) ([]models.HistoryRow, error) {
	return queryutil.WithRetry(ctx, func(ctx context.Context) ([]models.HistoryRow, error) {
		return r.q.LastPerformedRows(ctx, userID, exerciseIDs, r.opts.HistoryLimit, includeLocation)
	}, queryutil.RetryOptions{
		MaxRetries: r.opts.MaxRetries,
		Timeout:    r.opts.Timeout,
	})
}

// fetchWithFallback tries the location-aware shape when the schema carries
// the column, downgrading once to the no-location shape if that fails.
// The fallback is a schema-compatibility retry, separate from the
// transient-failure retries inside each fetch.
func (r *Resolver) fetchWithFallback(ctx context.Context, userID string, exerciseIDs []uuid.UUID) ([]models.HistoryRow, error) {
	if r.q.HasWorkoutLocation() {
		rows, err := r.fetch(ctx, userID, exerciseIDs, true)
		if err == nil {
			return rows, nil
		}
		r.log.Warn("location-aware history query failed, falling back", "error", err)
	}
	return r.fetch(ctx, userID, exerciseIDs, false)
}

// LastSetsForExercises returns, per exercise, the sets from that exercise's
// single most recent qualifying workout. A location filter skips workouts
// whose recorded location differs; rows without location data (older
// schema) are never filtered, since the column's absence means the filter
// cannot be enforced. Failures resolve to an empty map.
func (r *Resolver) LastSetsForExercises(ctx context.Context, userID string, exerciseIDs []uuid.UUID, location string) map[uuid.UUID]WorkoutSets {
	if len(exerciseIDs) == 0 {
		return map[uuid.UUID]WorkoutSets{}
	}

	rows, err := r.fetchWithFallback(ctx, userID, exerciseIDs)
	if err != nil {
		r.log.Warn("last workout lookup failed, returning no suggestions",
			"user", userID, "exercises", len(exerciseIDs), "error", err)
		return map[uuid.UUID]WorkoutSets{}
	}

	type latest struct {
		workoutID uuid.UUID
		date      time.Time
		sets      []models.HistorySet
	}
	best := make(map[uuid.UUID]*latest)

	// Rows arrive newest-first, so the first workout seen per exercise
	// seeds the current best and only a strictly newer date replaces it.
	for _, row := range rows {
		if location != "" && row.Location != nil && *row.Location != location {
			continue
		}
		cur, ok := best[row.ExerciseID]
		switch {
		case !ok:
			best[row.ExerciseID] = &latest{row.WorkoutID, row.PerformedAt, []models.HistorySet{row.Set}}
		case row.WorkoutID == cur.workoutID:
			cur.sets = append(cur.sets, row.Set)
		case row.PerformedAt.After(cur.date):
			*cur = latest{row.WorkoutID, row.PerformedAt, []models.HistorySet{row.Set}}
		}
	}

	result := make(map[uuid.UUID]WorkoutSets, len(best))
	for id, l := range best {
		sort.Slice(l.sets, func(i, j int) bool { return l.sets[i].SetIndex < l.sets[j].SetIndex })
		result[id] = WorkoutSets{Date: l.date, Sets: l.sets}
	}
	return result
}

// LastSets is the single-exercise convenience wrapper. It goes through the
// resolver's shared limiter so many simultaneous widget lookups cannot
// flood the database. The bool reports whether any prior workout was found.
func (r *Resolver) LastSets(ctx context.Context, userID string, exerciseID uuid.UUID, location string) (WorkoutSets, bool) {
	var ws WorkoutSets
	var found bool
	err := r.limiter.Do(ctx, func(ctx context.Context) error {
		m := r.LastSetsForExercises(ctx, userID, []uuid.UUID{exerciseID}, location)
		ws, found = m[exerciseID]
		return nil
	})
	if err != nil {
		return WorkoutSets{}, false
	}
	return ws, found
}

// LastThreeWorkouts returns up to the three most recent qualifying workouts
// for one exercise, newest first, each with its date and ordered sets.
// Used for progression display rather than pre-fill; same fallback and
// location-filter policy as LastSetsForExercises.
func (r *Resolver) LastThreeWorkouts(ctx context.Context, userID string, exerciseID uuid.UUID, location string) []WorkoutSets {
	rows, err := r.fetchWithFallback(ctx, userID, []uuid.UUID{exerciseID})
	if err != nil {
		r.log.Warn("recent workouts lookup failed",
			"user", userID, "exercise", exerciseID, "error", err)
		return nil
	}

	const maxWorkouts = 3
	var result []WorkoutSets
	byWorkout := make(map[uuid.UUID]int)

	for _, row := range rows {
		if row.ExerciseID != exerciseID {
			continue
		}
		if location != "" && row.Location != nil && *row.Location != location {
			continue
		}
		i, ok := byWorkout[row.WorkoutID]
		if !ok {
			if len(result) >= maxWorkouts {
				continue
			}
			i = len(result)
			byWorkout[row.WorkoutID] = i
			result = append(result, WorkoutSets{Date: row.PerformedAt})
		}
		result[i].Sets = append(result[i].Sets, row.Set)
	}

	for i := range result {
		sets := result[i].Sets
		sort.Slice(sets, func(a, b int) bool { return sets[a].SetIndex < sets[b].SetIndex })
	}
	return result
}
