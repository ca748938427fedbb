package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/whataboutred/redjitsu/internal/storage"
	"github.com/whataboutred/redjitsu/internal/suggest"
	"github.com/whataboutred/redjitsu/internal/workout"
)

// Suggester is the slice of the suggestion resolver the handlers use.
// Narrowed to an interface so handler tests can script suggestion results.
type Suggester interface {
	LastSetsForExercises(ctx context.Context, userID string, exerciseIDs []uuid.UUID, location string) map[uuid.UUID]suggest.WorkoutSets
	LastThreeWorkouts(ctx context.Context, userID string, exerciseID uuid.UUID, location string) []suggest.WorkoutSets
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	suggest  Suggester
	workouts *workout.Manager
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, suggester Suggester, workouts *workout.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		suggest:  suggester,
		workouts: workouts,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(Identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read-only lookups
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}/history", s.handleExerciseHistory)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)

		// Write routes (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/exercises", s.handleCreateExercise)
			r.Post("/workouts", s.handleSaveWorkout)

			// Active workout actions
			r.Route("/workout", func(r chi.Router) {
				r.Get("/", s.handleActiveWorkout)
				r.Get("/summary", s.handleSummary)
				r.Post("/start", s.handleStart)
				r.Post("/end", s.handleEnd)
				r.Post("/cancel", s.handleCancel)
				r.Post("/template", s.handleLoadTemplate)
				r.Post("/rest-timer", s.handleStartRestTimer)
				r.Delete("/rest-timer", s.handleStopRestTimer)
				r.Post("/exercises", s.handleAddExercise)
				r.Post("/exercises/reorder", s.handleReorderExercises)
				r.Route("/exercises/{ref}", func(r chi.Router) {
					r.Delete("/", s.handleRemoveExercise)
					r.Post("/expanded", s.handleToggleExpanded)
					r.Post("/notes", s.handleExerciseNotes)
					r.Post("/sets", s.handleAddSet)
					r.Route("/sets/{setID}", func(r chi.Router) {
						r.Patch("/", s.handleUpdateSet)
						r.Delete("/", s.handleRemoveSet)
						r.Post("/complete", s.handleToggleCompleted)
						r.Post("/warmup", s.handleToggleWarmup)
						r.Post("/copy-previous", s.handleCopyPreviousSet)
					})
				})
			})
		})
	})
}
