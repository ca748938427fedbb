package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/models"
	"github.com/whataboutred/redjitsu/internal/storage"
)

// handleSuggestions returns last-performed sets per requested exercise:
// GET /api/v1/suggestions?exercises=id1,id2&location=home
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("exercises")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercises parameter required"})
		return
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID: " + part})
			return
		}
		ids = append(ids, id)
	}

	results := s.suggest.LastSetsForExercises(r.Context(), userIDFromContext(r), ids, r.URL.Query().Get("location"))
	writeJSON(w, http.StatusOK, results)
}

// handleExerciseHistory returns up to the three most recent workouts for
// one exercise, for progression display.
func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}

	workouts := s.suggest.LastThreeWorkouts(r.Context(), userIDFromContext(r), id, r.URL.Query().Get("location"))
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	id, err := s.db.CreateExercise(r.Context(), userIDFromContext(r), req.Name, req.Category)
	if err != nil {
		s.log.Error("create exercise", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := s.db.QueryWorkouts(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	rec, err := s.db.GetWorkout(r.Context(), workoutID, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// saveWorkoutRequest is the explicit save flow: an ended workout snapshot
// posted by the caller. Row IDs are assigned server-side.
type saveWorkoutRequest struct {
	PerformedAt time.Time `json:"performed_at"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	Location    *string   `json:"location,omitempty"`
	Exercises   []struct {
		ExerciseID   uuid.UUID `json:"exercise_id"`
		ExerciseName string    `json:"exercise_name"`
		Sets         []struct {
			Weight  float64        `json:"weight"`
			Reps    int            `json:"reps"`
			SetType models.SetType `json:"set_type"`
		} `json:"sets"`
	} `json:"exercises"`
}

func (s *Server) handleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	var req saveWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.PerformedAt.IsZero() {
		req.PerformedAt = time.Now()
	}

	rec := storage.WorkoutRecord{
		WorkoutRow: models.WorkoutRow{
			ID:          uuid.New(),
			UserID:      userIDFromContext(r),
			PerformedAt: req.PerformedAt,
			Title:       req.Title,
			Notes:       req.Notes,
			Location:    req.Location,
		},
	}
	for pos, ex := range req.Exercises {
		exRec := storage.ExerciseRecord{
			WorkoutExerciseRow: models.WorkoutExerciseRow{
				ID:           uuid.New(),
				WorkoutID:    rec.ID,
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.ExerciseName,
				Position:     pos,
			},
		}
		for i, set := range ex.Sets {
			setType := set.SetType
			if setType == "" {
				setType = models.SetTypeWorking
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
		rec.Exercises = append(rec.Exercises, exRec)
	}

	if err := s.db.SaveWorkout(r.Context(), rec); err != nil {
		s.log.Error("save workout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID.String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
