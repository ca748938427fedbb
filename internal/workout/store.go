// Package workout holds the in-memory state machine for one in-progress
// workout: its exercises, sets, rest timer and derived summary. State
// survives restarts through a narrow persisted shape written to a local
// state database; the rest timer and summary are deliberately ephemeral.
package workout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Injected so tests control duration
// arithmetic deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// LastSet is one prior-performance set used for pre-filling.
type LastSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// LastWorkoutData is an exercise's most recent prior performance, attached
// when the exercise is added so set pre-fill needs no further lookups.
type LastWorkoutData struct {
	Date time.Time `json:"date"`
	Sets []LastSet `json:"sets"`
}

// Set is one logged set in the active workout.
type Set struct {
	ID          string  `json:"id"`
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	IsWarmup    bool    `json:"is_warmup"`
	IsCompleted bool    `json:"is_completed"`
	RestSeconds int     `json:"rest_seconds,omitempty"`
}

// Exercise is one exercise in the active workout with its ordered sets.
type Exercise struct {
	ID           string           `json:"id"`
	ExerciseID   string           `json:"exercise_id"`
	ExerciseName string           `json:"exercise_name"`
	Sets         []Set            `json:"sets"`
	Notes        string           `json:"notes,omitempty"`
	Expanded     bool             `json:"expanded"`
	LastWorkout  *LastWorkoutData `json:"last_workout,omitempty"`
}

// ActiveWorkout is the single in-progress workout session.
type ActiveWorkout struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	Location   string     `json:"location,omitempty"`
	Exercises  []Exercise `json:"exercises"`
	TemplateID string     `json:"template_id,omitempty"`
}

// Summary is derived from the active workout on demand. Volume, set and
// rep totals count only completed working sets; warm-ups are excluded.
type Summary struct {
	DurationMinutes int      `json:"duration_minutes"`
	TotalVolume     float64  `json:"total_volume"`
	TotalSets       int      `json:"total_sets"`
	TotalReps       int      `json:"total_reps"`
	ExerciseCount   int      `json:"exercise_count"`
	PRs             []string `json:"prs"`
}

// RestTimer is the countdown between sets. Ticked by an external driver
// once per second; never persisted.
type RestTimer struct {
	IsRunning  bool   `json:"is_running"`
	Seconds    int    `json:"seconds"`
	ExerciseID string `json:"exercise_id,omitempty"`
}

// SetPatch is a shallow-merge update for a set; nil fields are untouched.
type SetPatch struct {
	Weight      *float64 `json:"weight,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	IsWarmup    *bool    `json:"is_warmup,omitempty"`
	IsCompleted *bool    `json:"is_completed,omitempty"`
	RestSeconds *int     `json:"rest_seconds,omitempty"`
}

// TemplateExercise describes one exercise slot when starting from a
// program day: N empty sets at a fixed target rep count.
type TemplateExercise struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	Reps       int    `json:"reps"`
}

// Store is the active-workout state machine for one user. All state is
// mutated only through its methods; mutations rebuild the affected slices
// so snapshots taken concurrently never see a torn structure.
type Store struct {
	mu      sync.Mutex
	clock   Clock
	persist Persister
	log     *slog.Logger

	active   *ActiveWorkout
	isActive bool
	timer    RestTimer
	summary  *Summary
}

// NewStore creates a store, rehydrating any persisted active workout. The
// rest timer and summary always start cleared regardless of what was
// running before the restart.
func NewStore(clock Clock, persist Persister, log *slog.Logger) (*Store, error) {
	s := &Store{clock: clock, persist: persist, log: log}
	state, ok, err := persist.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		s.active = state.ActiveWorkout
		s.isActive = state.IsWorkoutActive
	}
	return s, nil
}

// save writes the persisted subset of state. Persistence is best-effort:
// the store raises no errors of its own, so failures are only logged.
func (s *Store) save() {
	err := s.persist.Save(PersistedState{
		ActiveWorkout:   s.active,
		IsWorkoutActive: s.isActive,
	})
	if err != nil {
		s.log.Warn("failed to persist active workout", "error", err)
	}
}

// Active reports whether a workout is in progress.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive
}

// Snapshot returns a deep copy of the active workout, if any.
func (s *Store) Snapshot() (ActiveWorkout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ActiveWorkout{}, false
	}
	return copyWorkout(*s.active), true
}

func copyWorkout(w ActiveWorkout) ActiveWorkout {
	exercises := make([]Exercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		exercises[i] = copyExercise(ex)
	}
	w.Exercises = exercises
	return w
}

func copyExercise(ex Exercise) Exercise {
	ex.Sets = append([]Set(nil), ex.Sets...)
	if ex.LastWorkout != nil {
		lw := *ex.LastWorkout
		lw.Sets = append([]LastSet(nil), lw.Sets...)
		ex.LastWorkout = &lw
	}
	return ex
}

// Start transitions Inactive→Active with a fresh workout. Guarding against
// an already-active workout is the caller's job; Start simply replaces.
func (s *Store) Start(title, templateID string) ActiveWorkout {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = "Workout"
	}
	s.active = &ActiveWorkout{
		ID:         uuid.NewString(),
		StartedAt:  s.clock.Now(),
		Title:      title,
		TemplateID: templateID,
	}
	s.isActive = true
	s.summary = nil
	s.save()
	return copyWorkout(*s.active)
}

// End computes and stores the summary, stops the rest timer and
// deactivates, retaining the last workout snapshot for the caller's save
// flow. Returns false when no workout is active.
func (s *Store) End() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isActive || s.active == nil {
		return Summary{}, false
	}
	sum := s.summaryLocked()
	s.summary = &sum
	s.timer = RestTimer{}
	s.isActive = false
	s.save()
	return sum, true
}

// Cancel hard-discards the active workout: no summary, no snapshot.
func (s *Store) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.isActive = false
	s.timer = RestTimer{}
	s.summary = nil
	s.save()
}

// LastSummary returns the summary stored by End, if one exists.
func (s *Store) LastSummary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return Summary{}, false
	}
	return *s.summary, true
}

// HasExercise reports whether an exercise is already in the active
// workout. Deduplication on add is a caller contract; this makes the
// check cheap.
func (s *Store) HasExercise(exerciseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	for _, ex := range s.active.Exercises {
		if ex.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// AddExercise appends an exercise, auto-seeding exactly one set. When
// prior-performance data is present the seed copies weight/reps from its
// first set; otherwise the set starts at zero.
func (s *Store) AddExercise(exerciseID, exerciseName string, last *LastWorkoutData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}

	seed := Set{ID: uuid.NewString()}
	if last != nil && len(last.Sets) > 0 {
		seed.Weight = last.Sets[0].Weight
		seed.Reps = last.Sets[0].Reps
	}

	ex := Exercise{
		ID:           uuid.NewString(),
		ExerciseID:   exerciseID,
		ExerciseName: exerciseName,
		Sets:         []Set{seed},
		Expanded:     true,
		LastWorkout:  last,
	}
	s.active.Exercises = append(append([]Exercise(nil), s.active.Exercises...), ex)
	s.save()
}

// RemoveExercise deletes an exercise and its sets.
func (s *Store) RemoveExercise(exerciseRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	next := make([]Exercise, 0, len(s.active.Exercises))
	for _, ex := range s.active.Exercises {
		if ex.ID != exerciseRef {
			next = append(next, ex)
		}
	}
	s.active.Exercises = next
	s.save()
}

// ReorderExercises moves the exercise at from to position to via a
// remove-then-reinsert splice. Out-of-range indices are a no-op.
func (s *Store) ReorderExercises(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	n := len(s.active.Exercises)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	next := append([]Exercise(nil), s.active.Exercises...)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]Exercise{moved}, next[to:]...)...)
	s.active.Exercises = next
	s.save()
}

// ToggleExerciseExpanded flips an exercise's expanded/collapsed flag.
func (s *Store) ToggleExerciseExpanded(exerciseRef string) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		ex.Expanded = !ex.Expanded
		return ex
	})
}

// SetExerciseNotes replaces an exercise's notes.
func (s *Store) SetExerciseNotes(exerciseRef, notes string) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		ex.Notes = notes
		return ex
	})
}

// updateExercise applies fn to the named exercise, replacing the exercise
// list with a new slice.
func (s *Store) updateExercise(exerciseRef string, fn func(Exercise) Exercise) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	next := append([]Exercise(nil), s.active.Exercises...)
	for i, ex := range next {
		if ex.ID == exerciseRef {
			next[i] = fn(copyExercise(ex))
			s.active.Exercises = next
			s.save()
			return
		}
	}
}

// AddSet appends one set to the named exercise. Pre-fill precedence: the
// exercise's own last set in this session, then the prior workout's first
// set, then zeros.
func (s *Store) AddSet(exerciseRef string, prefillFromLast bool) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		set := Set{ID: uuid.NewString()}
		if prefillFromLast {
			switch {
			case len(ex.Sets) > 0:
				prev := ex.Sets[len(ex.Sets)-1]
				set.Weight = prev.Weight
				set.Reps = prev.Reps
			case ex.LastWorkout != nil && len(ex.LastWorkout.Sets) > 0:
				set.Weight = ex.LastWorkout.Sets[0].Weight
				set.Reps = ex.LastWorkout.Sets[0].Reps
			}
		}
		ex.Sets = append(ex.Sets, set)
		return ex
	})
}

// RemoveSet deletes a set from an exercise.
func (s *Store) RemoveSet(exerciseRef, setID string) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		next := make([]Set, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			if set.ID != setID {
				next = append(next, set)
			}
		}
		ex.Sets = next
		return ex
	})
}

// UpdateSet shallow-merges the patch into the named set.
func (s *Store) UpdateSet(exerciseRef, setID string, patch SetPatch) {
	s.updateSet(exerciseRef, setID, func(set Set) Set {
		if patch.Weight != nil {
			set.Weight = *patch.Weight
		}
		if patch.Reps != nil {
			set.Reps = *patch.Reps
		}
		if patch.IsWarmup != nil {
			set.IsWarmup = *patch.IsWarmup
		}
		if patch.IsCompleted != nil {
			set.IsCompleted = *patch.IsCompleted
		}
		if patch.RestSeconds != nil {
			set.RestSeconds = *patch.RestSeconds
		}
		return set
	})
}

// ToggleSetCompleted flips a set's completion flag.
func (s *Store) ToggleSetCompleted(exerciseRef, setID string) {
	s.updateSet(exerciseRef, setID, func(set Set) Set {
		set.IsCompleted = !set.IsCompleted
		return set
	})
}

// ToggleSetWarmup flips a set between warm-up and working.
func (s *Store) ToggleSetWarmup(exerciseRef, setID string) {
	s.updateSet(exerciseRef, setID, func(set Set) Set {
		set.IsWarmup = !set.IsWarmup
		return set
	})
}

// CopyPreviousSet copies weight/reps into a set from the set before it.
// A no-op for the first set of an exercise.
func (s *Store) CopyPreviousSet(exerciseRef, setID string) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		for i, set := range ex.Sets {
			if set.ID != setID {
				continue
			}
			if i <= 0 {
				return ex
			}
			set.Weight = ex.Sets[i-1].Weight
			set.Reps = ex.Sets[i-1].Reps
			ex.Sets[i] = set
			return ex
		}
		return ex
	})
}

func (s *Store) updateSet(exerciseRef, setID string, fn func(Set) Set) {
	s.updateExercise(exerciseRef, func(ex Exercise) Exercise {
		for i, set := range ex.Sets {
			if set.ID == setID {
				ex.Sets[i] = fn(set)
				return ex
			}
		}
		return ex
	})
}

// LoadTemplate replaces the exercise list with one exercise per template
// slot, each pre-populated with the requested number of empty sets at the
// template's rep target.
func (s *Store) LoadTemplate(slots []TemplateExercise) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	exercises := make([]Exercise, 0, len(slots))
	for _, slot := range slots {
		sets := make([]Set, 0, slot.Sets)
		for range slot.Sets {
			sets = append(sets, Set{ID: uuid.NewString(), Reps: slot.Reps})
		}
		exercises = append(exercises, Exercise{
			ID:           uuid.NewString(),
			ExerciseID:   slot.ExerciseID,
			ExerciseName: slot.Name,
			Sets:         sets,
			Expanded:     true,
		})
	}
	s.active.Exercises = exercises
	s.save()
}

// Summary computes the derived summary from current state. Pure
// arithmetic: calling it twice without intervening mutation yields equal
// results. PR detection needs history the store does not own, so PRs is
// always empty.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Store) summaryLocked() Summary {
	sum := Summary{PRs: []string{}}
	if s.active == nil {
		return sum
	}
	sum.DurationMinutes = int(s.clock.Now().Sub(s.active.StartedAt).Minutes())
	sum.ExerciseCount = len(s.active.Exercises)
	for _, ex := range s.active.Exercises {
		for _, set := range ex.Sets {
			if !set.IsCompleted || set.IsWarmup {
				continue
			}
			sum.TotalVolume += set.Weight * float64(set.Reps)
			sum.TotalSets++
			sum.TotalReps += set.Reps
		}
	}
	return sum
}
