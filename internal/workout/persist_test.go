package workout

import (
	"log/slog"
	"testing"
	"time"
)

// TestPersistenceScope simulates a reload: only the active workout and the
// active flag survive; the rest timer resets and the summary is absent.
func TestPersistenceScope(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	clock := &fakeClock{t: time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)}
	s, err := NewStore(clock, state.ForUser("u1"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	s.Start("Leg Day", "")
	s.AddExercise("ex1", "Squat", &LastWorkoutData{Sets: []LastSet{{Weight: 135, Reps: 5}}})
	s.StartRestTimer(120, "ex1")

	before, _ := s.Snapshot()

	// New store over the same persisted row stands in for a page reload.
	reloaded, err := NewStore(clock, state.ForUser("u1"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}

	if !reloaded.Active() {
		t.Error("active flag lost across reload")
	}
	after, ok := reloaded.Snapshot()
	if !ok {
		t.Fatal("active workout lost across reload")
	}
	if after.ID != before.ID || after.Title != before.Title {
		t.Errorf("workout = %+v, want %+v", after, before)
	}
	if len(after.Exercises) != 1 || len(after.Exercises[0].Sets) != 1 {
		t.Fatalf("exercise structure not preserved: %+v", after.Exercises)
	}
	if got := after.Exercises[0].Sets[0]; got.Weight != 135 || got.Reps != 5 {
		t.Errorf("set = %+v, want 135/5 preserved exactly", got)
	}
	if !after.StartedAt.Equal(before.StartedAt) {
		t.Errorf("startedAt = %v, want %v", after.StartedAt, before.StartedAt)
	}

	if tm := reloaded.RestTimerState(); tm.IsRunning || tm.Seconds != 0 {
		t.Errorf("rest timer = %+v, want reset after reload", tm)
	}
	if _, ok := reloaded.LastSummary(); ok {
		t.Error("summary survived reload; it must be ephemeral")
	}
}

// TestPersistenceAfterCancel verifies a cancelled workout does not
// reappear after a reload.
func TestPersistenceAfterCancel(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	clock := &fakeClock{t: time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)}
	s, err := NewStore(clock, state.ForUser("u1"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	s.Start("X", "")
	s.Cancel()

	reloaded, err := NewStore(clock, state.ForUser("u1"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Active() {
		t.Error("cancelled workout came back after reload")
	}
	if _, ok := reloaded.Snapshot(); ok {
		t.Error("snapshot present after cancel + reload")
	}
}

// TestStateDBIsolatesUsers verifies per-user rows do not bleed into each
// other.
func TestStateDBIsolatesUsers(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	clock := &fakeClock{t: time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)}
	alice, err := NewStore(clock, state.ForUser("alice"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	alice.Start("Alice Day", "")

	bob, err := NewStore(clock, state.ForUser("bob"), slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if bob.Active() {
		t.Error("bob sees alice's active workout")
	}
}

// TestManagerReturnsSameStore verifies per-user store identity and
// rehydration through the manager.
func TestManagerReturnsSameStore(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	m := NewManager(state, SystemClock(), time.Hour, slog.Default())
	defer m.Close()

	a, err := m.StoreFor("u1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.StoreFor("u1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("manager created two stores for one user")
	}

	other, err := m.StoreFor("u2")
	if err != nil {
		t.Fatal(err)
	}
	if other == a {
		t.Error("manager shared a store across users")
	}
}
