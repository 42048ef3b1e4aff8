package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	issuer         *auth.Issuer
	authH          *handler.AuthHandler
	dashboardH     *handler.DashboardHandler
	instanceH      *handler.InstanceHandler
	taskH          *handler.TaskHandler
	personH        *handler.PersonHandler
	rateLimiter    *middleware.RateLimiter
	metricsEnabled bool
	logger         *slog.Logger
}

// New wires stores, the chore engine and HTTP handlers around db. now may be
// nil to use the wall clock.
func New(db *sql.DB, cfg *config.Config, now handler.Clock, logger *slog.Logger) (*Server, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	personStore := store.NewPersonStore(db)
	taskStore := store.NewTaskStore(db)
	instanceStore := store.NewInstanceStore(db)
	markStore := store.NewBlackMarkStore(db)

	classifier := chore.NewClassifier(cfg.Location)
	materializer := chore.NewMaterializer(instanceStore, logger)
	materializer.OnCreate(func(householdID int64, inst model.TaskInstance) {
		hub.Broadcast(householdID, ws.NewMessage("instances", "materialized", inst.ID, map[string]any{
			"task_id":     inst.TaskID,
			"assigned_to": inst.AssignedTo,
			"due_date":    inst.DueDate.String(),
		}))
	})
	processor := chore.NewProcessor(taskStore, instanceStore, personStore, materializer, classifier, logger)
	assembler := chore.NewAssembler(taskStore, instanceStore, personStore, markStore, materializer, classifier, logger)
	tasks := chore.NewTasks(taskStore, personStore, logger)
	limiter := middleware.NewRateLimiter()

	return &Server{
		db:             db,
		hub:            hub,
		issuer:         issuer,
		authH:          handler.NewAuthHandler(householdStore, personStore, issuer, limiter, logger.With("component", "auth")),
		dashboardH:     handler.NewDashboardHandler(assembler, classifier, now, logger.With("component", "dashboard_handler")),
		instanceH:      handler.NewInstanceHandler(processor, personStore, hub, now, logger.With("component", "instance_handler")),
		taskH:          handler.NewTaskHandler(tasks, hub, logger.With("component", "task_handler")),
		personH:        handler.NewPersonHandler(personStore, markStore, logger.With("component", "person_handler")),
		rateLimiter:    limiter,
		metricsEnabled: cfg.MetricsEnabled,
		logger:         logger,
	}, nil
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth required)
	mux.HandleFunc("GET /health", s.healthHandler)
	if s.metricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.HandleFunc("POST /api/login", s.rateLimitedHandler("login", s.authH.Login))

	// Household token required
	authed := middleware.RequireAuth(s.issuer)
	mux.Handle("POST /api/profile", authed(http.HandlerFunc(s.rateLimitedHandler("profile", s.authH.SelectProfile))))
	mux.Handle("GET /api/dashboard", authed(http.HandlerFunc(s.dashboardH.Get)))
	mux.Handle("GET /api/people", authed(http.HandlerFunc(s.personH.List)))
	mux.Handle("GET /api/people/{id}/marks", authed(http.HandlerFunc(s.personH.Marks)))
	mux.Handle("GET /ws", authed(ws.HandleWebSocket(s.hub)))

	// Profile token required
	mux.Handle("POST /api/instances/{id}/complete", authed(middleware.RequireProfile(http.HandlerFunc(s.instanceH.Complete))))

	// Admin profile required
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}
	mux.Handle("GET /api/tasks", admin(s.taskH.List))
	mux.Handle("POST /api/tasks", admin(s.taskH.Create))
	mux.Handle("PUT /api/tasks/{id}", admin(s.taskH.Update))
	mux.Handle("DELETE /api/tasks/{id}", admin(s.taskH.Deactivate))

	// Metrics reads the pattern the mux matched, so it must wrap the mux directly.
	return middleware.RequestLogger(s.logger.With("component", "http"))(middleware.Metrics(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// rateLimitedHandler limits h per client IP. Each scope has its own budget.
func (s *Server) rateLimitedHandler(scope string, h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return scope + ":" + middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, loginLimit, loginWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
