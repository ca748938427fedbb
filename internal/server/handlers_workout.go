package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/workout"
)

// storeFor resolves the caller's active-workout store, writing a 500 and
// returning nil if the state database is unavailable.
func (s *Server) storeFor(w http.ResponseWriter, r *http.Request) *workout.Store {
	store, err := s.workouts.StoreFor(userIDFromContext(r))
	if err != nil {
		s.log.Error("open workout store", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "workout state unavailable"})
		return nil
	}
	return store
}

// activeWorkoutResponse is the full client view: workout snapshot plus
// rest timer, so one poll refreshes everything.
type activeWorkoutResponse struct {
	Active    bool                   `json:"active"`
	Workout   *workout.ActiveWorkout `json:"workout,omitempty"`
	RestTimer workout.RestTimer      `json:"rest_timer"`
}

func (s *Server) handleActiveWorkout(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	resp := activeWorkoutResponse{RestTimer: store.RestTimerState()}
	if snap, ok := store.Snapshot(); ok {
		resp.Active = true
		resp.Workout = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	if store.Active() {
		writeJSON(w, http.StatusOK, store.Summary())
		return
	}
	if sum, ok := store.LastSummary(); ok {
		writeJSON(w, http.StatusOK, sum)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no workout to summarize"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		Title      string `json:"title"`
		TemplateID string `json:"template_id"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusCreated, store.Start(req.Title, req.TemplateID))
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	sum, ok := store.End()
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadTemplate(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		Exercises []workout.TemplateExercise `json:"exercises"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	store.LoadTemplate(req.Exercises)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRestTimer(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		Seconds    int    `json:"seconds"`
		ExerciseID string `json:"exercise_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	store.StartRestTimer(req.Seconds, req.ExerciseID)
	writeJSON(w, http.StatusOK, store.RestTimerState())
}

func (s *Server) handleStopRestTimer(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.StopRestTimer()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		ExerciseID   string `json:"exercise_id"`
		ExerciseName string `json:"exercise_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == "" || req.ExerciseName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id and exercise_name are required"})
		return
	}
	if store.HasExercise(req.ExerciseID) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "exercise already in workout"})
		return
	}

	// Attach prior performance for set pre-fill. Best effort: an invalid
	// ID or empty history just means no pre-fill data.
	var last *workout.LastWorkoutData
	if exID, err := uuid.Parse(req.ExerciseID); err == nil {
		results := s.suggest.LastSetsForExercises(r.Context(), userIDFromContext(r), []uuid.UUID{exID}, "")
		if prior, ok := results[exID]; ok {
			last = &workout.LastWorkoutData{Date: prior.Date}
			for _, set := range prior.Sets {
				last.Sets = append(last.Sets, workout.LastSet{Weight: set.Weight, Reps: set.Reps})
			}
		}
	}

	store.AddExercise(req.ExerciseID, req.ExerciseName, last)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	store.ReorderExercises(req.From, req.To)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.RemoveExercise(chi.URLParam(r, "ref"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleExpanded(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.ToggleExerciseExpanded(chi.URLParam(r, "ref"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExerciseNotes(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	store.SetExerciseNotes(chi.URLParam(r, "ref"), req.Notes)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	prefill := true
	if r.ContentLength > 0 {
		var req struct {
			Prefill *bool `json:"prefill"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
		if req.Prefill != nil {
			prefill = *req.Prefill
		}
	}
	store.AddSet(chi.URLParam(r, "ref"), prefill)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	var patch workout.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	store.UpdateSet(chi.URLParam(r, "ref"), chi.URLParam(r, "setID"), patch)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.RemoveSet(chi.URLParam(r, "ref"), chi.URLParam(r, "setID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleCompleted(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.ToggleSetCompleted(chi.URLParam(r, "ref"), chi.URLParam(r, "setID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleWarmup(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.ToggleSetWarmup(chi.URLParam(r, "ref"), chi.URLParam(r, "setID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyPreviousSet(w http.ResponseWriter, r *http.Request) {
	store := s.storeFor(w, r)
	if store == nil {
		return
	}
	store.CopyPreviousSet(chi.URLParam(r, "ref"), chi.URLParam(r, "setID"))
	w.WriteHeader(http.StatusNoContent)
}
