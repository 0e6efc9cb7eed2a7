package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/claude/fittrack/internal/planner"
	"github.com/claude/fittrack/internal/store"
)

// PlanGenerator produces a weekly plan for a free-text goal.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, goal string) (planner.WeeklyPlan, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	gw      store.Gateway
	planner PlanGenerator
	log     *slog.Logger
	user    string
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. All collection
// paths are scoped under the given user identity.
func New(gw store.Gateway, pg PlanGenerator, user, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		gw:      gw,
		planner: pg,
		log:     log,
		user:    user,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(chimw.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
	}).Handler)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)

		r.Route("/profiles/{profileID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteProfile)

			r.Get("/dashboard", s.handleDashboard)

			r.Get("/workouts", s.handleListWorkouts)
			r.Post("/workouts", s.handleCreateWorkout)
			r.Put("/workouts/{id}", s.handleUpdateWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)
			r.Delete("/days/{date}", s.handleDeleteDay)

			r.Get("/weightlog", s.handleListWeightLog)
			r.Post("/weightlog", s.handleLogWeight)

			r.Get("/plans", s.handleListPlans)
			r.Post("/plans", s.handleCreatePlan)
			r.Put("/plans/{id}", s.handleUpdatePlan)
			r.Delete("/plans/{id}", s.handleDeletePlan)
			r.Post("/plans/{id}/instantiate", s.handleInstantiatePlan)

			r.Post("/generate-plan", s.handleGeneratePlan)

			r.Get("/ws", s.handleWS)
		})
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// profilePath returns the user's profile collection.
func (s *Server) profilePath() string {
	return store.ProfilesPath(s.user)
}

// collPath returns a record collection scoped to the request's profile.
func (s *Server) collPath(r *http.Request, name string) string {
	return store.CollectionPath(s.user, chi.URLParam(r, "profileID"), name)
}
